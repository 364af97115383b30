package api

import (
	"context"
	"time"
)

// UploadTimeout bounds invoice image uploads, the only calls that leave the
// process for longer than a database round trip.
const UploadTimeout = 30 * time.Second

// WithUploadTimeout derives a context for an invoice upload.
func WithUploadTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, UploadTimeout)
}
