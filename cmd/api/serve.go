package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/auth"
	"github.com/01moynul/recipeshop-checkout/internal/checkout"
	"github.com/01moynul/recipeshop-checkout/internal/config"
	"github.com/01moynul/recipeshop-checkout/internal/database"
	"github.com/01moynul/recipeshop-checkout/internal/email"
	"github.com/01moynul/recipeshop-checkout/internal/events"
	"github.com/01moynul/recipeshop-checkout/internal/handlers"
	"github.com/01moynul/recipeshop-checkout/internal/logging"
	"github.com/01moynul/recipeshop-checkout/internal/memstore"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
	"github.com/01moynul/recipeshop-checkout/internal/redisx"
	"github.com/01moynul/recipeshop-checkout/internal/routes"
	"github.com/01moynul/recipeshop-checkout/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		memory  bool
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if memory {
				cfg.MemoryStore = true
			}
			return serve(cmdContext(cmd), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "use the in-process store with demo products instead of MySQL")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogFormat != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Storage ---
	var (
		st    store.Store
		ready []func(context.Context) error
	)
	if cfg.MemoryStore {
		mem := memstore.New()
		seedDemoProducts(mem)
		st = mem
		log.Warn().Msg("using in-memory store; orders are lost on restart")
	} else {
		db, err := database.OpenDB(ctx, cfg.DBDSN, log)
		if err != nil {
			return fmt.Errorf("failed to connect to primary database: %w", err)
		}
		defer db.Close()
		if migrate {
			if err := database.MigrateUp(db); err != nil {
				return err
			}
		}
		st = database.NewStore(db)
		ready = append(ready, db.PingContext)
	}

	// 2. --- Pending transaction tracker (optional) ---
	var pending checkout.PendingTracker
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn().Err(err).Msg("redis unreachable; polls answer NotFoundYet until it recovers")
		}
		pending = redisx.NewPendingTracker(rdb, cfg.PendingTTL)
		ready = append(ready, func(ctx context.Context) error { return redisx.Ping(ctx, rdb) })
	}

	// 3. --- Order events (optional) ---
	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, events.TopicOrders, 256, log)
		kp.Start()
		defer kp.Close()
		publisher = kp
	}

	// 4. --- Mail ---
	var mailer email.Sender = email.NewLogSender(log)
	if cfg.SMTPEnabled() {
		mailer = email.NewSMTPSender(cfg.MailFromName, cfg.MailFrom, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	} else {
		log.Warn().Msg("SMTP not configured; emails are logged only")
	}

	// 5. --- Checkout core ---
	svc := checkout.New(checkout.Deps{
		Store:    st,
		Provider: payment.NewClient(cfg.PaymentAPIKey, cfg.PaymentBaseURL, cfg.PaymentTimeout),
		Mailer:   mailer,
		Events:   publisher,
		Pending:  pending,
		Log:      log,
	}, checkout.Options{
		DefaultCountry:   cfg.DefaultCountry,
		OversellPolicy:   models.OversellPolicy(cfg.OversellPolicy),
		AccessTokenBytes: cfg.AccessTokenBytes,
		AdminEmail:       cfg.AdminEmail,
	})

	app := &handlers.Handlers{
		Checkout: svc,
		Webhooks: payment.NewVerifier(cfg.PaymentWebhookSecret, cfg.WebhookTolerance),
		Log:      log,
		Ready:    allReady(ready),
	}
	router := routes.SetupRouter(app, routes.Options{
		CORSOrigin: cfg.CORSOrigin,
		Tokens:     auth.NewManager(cfg.JWTSecret, 0),
		Log:        log,
	})

	// 6. --- Start Server ---
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("oversell_policy", cfg.OversellPolicy).Msg("starting checkout API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}

func allReady(checks []func(context.Context) error) func(context.Context) error {
	if len(checks) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// seedDemoProducts fills the memory store so the API is usable without MySQL.
func seedDemoProducts(mem *memstore.Store) {
	for _, p := range []models.Product{
		{
			ID: "cookbook-print", Name: "Weeknight Cookbook (print)", ProviderPriceID: "pri_cookbook_print",
			LocalizedPrices: map[string]string{"DE": "pri_cookbook_print_eur", "GB": "pri_cookbook_print_gbp"},
			UnitPrice:       decimal.RequireFromString("24.00"), Currency: "USD", TotalStock: 50, RemainingStock: 50,
		},
		{
			ID: "spice-kit", Name: "Spice Starter Kit", ProviderPriceID: "pri_spice_kit",
			UnitPrice: decimal.RequireFromString("18.50"), Currency: "USD", TotalStock: 10, RemainingStock: 10,
		},
		{
			ID: "signed-apron", Name: "Signed Apron", ProviderPriceID: "pri_signed_apron",
			UnitPrice: decimal.RequireFromString("40.00"), Currency: "USD", TotalStock: 1, RemainingStock: 1,
		},
	} {
		mem.PutProduct(p)
	}
}
