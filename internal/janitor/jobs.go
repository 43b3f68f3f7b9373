package janitor

import (
	"context"
	"fmt"
	"time"
)

// draftPruner is the checkout surface the expiry job needs.
type draftPruner interface {
	PruneExpired(ctx context.Context, maxAge time.Duration) int
}

// CheckoutExpiryJob removes abandoned checkout drafts.
type CheckoutExpiryJob struct {
	pruner draftPruner
	maxAge time.Duration
}

// NewCheckoutExpiryJob builds the draft expiry job.
func NewCheckoutExpiryJob(pruner draftPruner, maxAge time.Duration) (*CheckoutExpiryJob, error) {
	if pruner == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive")
	}
	return &CheckoutExpiryJob{pruner: pruner, maxAge: maxAge}, nil
}

func (j *CheckoutExpiryJob) Name() string { return "checkout_draft_expiry" }

func (j *CheckoutExpiryJob) Run(ctx context.Context) error {
	j.pruner.PruneExpired(ctx, j.maxAge)
	return nil
}
