package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// RunContext identifies one crawl invocation in logs and errors
type RunContext struct {
	RunID     string
	StartTime time.Time
	logger    zerolog.Logger
}

// WithRunContext attaches a fresh run ID and a logger tagged with it
func WithRunContext(ctx context.Context) context.Context {
	id := uuid.NewString()
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     id,
		StartTime: time.Now(),
		logger:    log.With().Str("run_id", id).Logger(),
	})
}

// GetRunContext returns the run attached to ctx, or a placeholder
func GetRunContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
		logger:    log.Logger,
	}
}

// Logger returns the run-tagged logger for ctx
func Logger(ctx context.Context) *zerolog.Logger {
	l := GetRunContext(ctx).logger
	return &l
}

// RunError wraps an error with the run that produced it
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError from context
func NewRunError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{
		RunID: GetRunContext(ctx).RunID,
		Err:   err,
	}
}
