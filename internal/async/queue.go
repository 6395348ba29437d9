package async

import (
	"context"
	"time"
)

// Job is one PDF dropped into a watched folder.
type Job struct {
	Path        string
	Actor       int64
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
