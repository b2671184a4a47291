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

package notify

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/notify/log"
)

func TestRateLimitedPassthrough(t *testing.T) {
	inner := log.New(nil)
	limited := NewRateLimited(inner, rate.Inf, 1)

	if err := limited.Configure(nil); err != nil {
		t.Fatalf("Configure() returned error: %v", err)
	}
	if err := limited.Send(context.Background(), "ops@example.com", "subject", "body"); err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}

	sent := inner.Sent()
	if len(sent) != 1 {
		t.Fatalf("captured %d notifications, want 1", len(sent))
	}
	if sent[0].Recipient != "ops@example.com" || sent[0].Subject != "subject" {
		t.Fatalf("captured notification = %+v", sent[0])
	}
}

func TestRateLimitedHonorsDeadline(t *testing.T) {
	inner := log.New(nil)
	// One token per hour, burst 1: the second send cannot acquire a token.
	limited := NewRateLimited(inner, rate.Every(time.Hour), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limited.Send(ctx, "r", "s", "b"); err != nil {
		t.Fatalf("first Send() returned error: %v", err)
	}
	err := limited.Send(ctx, "r", "s", "b")
	if err == nil {
		t.Fatal("second Send() succeeded despite exhausted quota")
	}
	if !common.IsTransient(err) {
		t.Fatalf("Send() error = %v, want transient", err)
	}
	if len(inner.Sent()) != 1 {
		t.Fatalf("captured %d notifications, want 1", len(inner.Sent()))
	}
}
