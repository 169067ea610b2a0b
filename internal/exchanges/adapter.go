// Package exchanges holds the REST clients that pull account balances and
// transaction history from supported exchanges. Each adapter speaks its
// vendor's auth scheme and pagination but hands back the same RawTx shape.
package exchanges

import (
	"context"
	"fmt"
	"time"

	"github.com/harborfin/taxlot/internal/models"
)

// Adapter is the per-exchange client contract. Implementations must be safe
// for concurrent use.
type Adapter interface {
	// Name returns the exchange identifier used in routes and SourceID.
	Name() string

	// TestConnection verifies the credentials against a cheap authenticated
	// endpoint without mutating anything.
	TestConnection(ctx context.Context, creds models.Credentials) (bool, error)

	// SyncAccounts fetches current spot balances.
	SyncAccounts(ctx context.Context, creds models.Credentials) ([]models.Balance, error)

	// SyncTransactions fetches vendor transaction records in [start, end].
	SyncTransactions(ctx context.Context, creds models.Credentials, start, end time.Time) ([]models.RawTx, error)
}

// Registry maps exchange names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unsupported exchange: %s", name)
	}
	return a, nil
}

// Names lists the registered exchange names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
