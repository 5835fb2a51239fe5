package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/auth"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// tokenCmd mints a bearer token for local testing. Login lives in the
// session service; this only signs with the shared secret.
func tokenCmd() *cobra.Command {
	var id models.Identity
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := envSecret("JWT_SECRET")
			if err != nil {
				return err
			}
			tok, err := auth.NewManager(secret, ttl).GenerateToken(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&id.Email, "email", "", "user email")
	cmd.Flags().StringVar(&id.Country, "country", "", "ISO country code")
	cmd.Flags().StringVar(&id.Role, "role", "", `role, e.g. "admin"`)
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// signWebhookCmd prints the signature header for a webhook body read from stdin.
func signWebhookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-webhook",
		Short: "Sign a webhook body from stdin with PAYMENT_WEBHOOK_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := envSecret("PAYMENT_WEBHOOK_SECRET")
			if err != nil {
				return err
			}
			body, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			v := payment.NewVerifier(secret, 0)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", payment.SignatureHeader, v.Sign(time.Now(), body))
			return nil
		},
	}
}

func envSecret(key string) (string, error) {
	_ = godotenv.Load()
	v := viper.New()
	if err := v.BindEnv(key); err != nil {
		return "", err
	}
	s := v.GetString(key)
	if s == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return s, nil
}
