package scheduler

import "context"

// Job is a unit of work run by the worker pool.
type Job interface {
	// Execute runs the job. Implementations must respect ctx cancellation.
	Execute(ctx context.Context) error

	// ConnectionID identifies the connection the job works on, for logging.
	ConnectionID() string

	Description() string
}
