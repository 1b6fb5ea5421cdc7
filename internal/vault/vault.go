// Package vault archives original document bytes before extraction.
package vault

import "context"

// Vault stores original document bytes. Archiving is best-effort: callers log
// failures and continue, so implementations must not be load-bearing for the
// ingestion path.
type Vault interface {
	Put(ctx context.Context, name string, data []byte) error
}
