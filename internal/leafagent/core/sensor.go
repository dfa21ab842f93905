package core

import "context"

// Sampler produces one averaged sensor value per wake cycle.
type Sampler interface {
	Sample(ctx context.Context) (float64, error)
}
