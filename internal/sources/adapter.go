package sources

import (
	"context"

	"github.com/pulsefeed/pulse/internal/models"
)

// Adapter defines the interface every source adapter implements. An
// adapter converts one backing system's records into canonical
// ActivityItems. Adapters are read-only against their sources and set
// the Source field to a single fixed variant.
type Adapter interface {
	// Name returns the unique identifier for this adapter, used in
	// logs and metrics.
	Name() string

	// Source returns the source variant this adapter emits.
	Source() models.Source

	// Fetch retrieves and normalizes current activity. Implementations
	// must honor ctx cancellation; errors are handled by the fan-out
	// layer, which substitutes an empty result.
	Fetch(ctx context.Context) ([]models.ActivityItem, error)
}
