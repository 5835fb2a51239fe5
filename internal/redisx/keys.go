package redisx

import "time"

const (
	// Transaction issued but not yet reconciled: checkout:pending:{transaction_id} -> user_id
	KeyPendingTxn = "checkout:pending:%s"
)

var TTLPending = 24 * time.Hour
