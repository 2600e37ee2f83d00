// Package warehouse defines the read-only contract the dashboard uses to
// talk to its analytical warehouse
package warehouse

import (
	"context"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
)

// Client executes finished query text against the warehouse. Implementations
// must be safe for concurrent use and never modify warehouse data.
type Client interface {
	// Query executes a statement and returns its result set
	Query(ctx context.Context, query string) (*frame.Frame, error)
	// Start opens the connection and verifies connectivity
	Start(ctx context.Context) error
	// Stop releases the connection
	Stop() error
}
