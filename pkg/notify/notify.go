// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-imagepipe.
//
// go-imagepipe is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package notify provides shared notifier plumbing. Concrete backends live
// in the subpackages.
package notify

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// DefaultSendRate caps notification dispatch at one send per second with a
// small burst, matching typical mail-provider send quotas.
const (
	DefaultSendRate  = rate.Limit(1)
	DefaultSendBurst = 5
)

// RateLimited wraps a notifier with a token-bucket send limit. Waiting for
// a token respects the caller's context deadline.
type RateLimited struct {
	next    common.Notifier
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited notifier wrapper around next.
func NewRateLimited(next common.Notifier, r rate.Limit, burst int) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(r, burst),
	}
}

// Configure passes settings through to the wrapped notifier.
func (n *RateLimited) Configure(settings map[string]string) error {
	return n.next.Configure(settings)
}

// Send waits for send quota and dispatches through the wrapped notifier.
func (n *RateLimited) Send(ctx context.Context, recipient, subject, body string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return common.Transient("notification rate wait", err)
	}
	return n.next.Send(ctx, recipient, subject, body)
}
