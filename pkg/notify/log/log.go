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

// Package log provides a notifier that writes notifications to the logger.
// Useful for testing and local development.
package log

import (
	"context"
	"sync"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
)

// Notification is a captured notification.
type Notification struct {
	Recipient string
	Subject   string
	Body      string
}

// Notifier logs every notification and keeps an in-memory capture of what
// was sent.
type Notifier struct {
	logger adapters.Logger

	mu   sync.Mutex
	sent []Notification
}

// New creates a new logging notifier.
func New(logger adapters.Logger) *Notifier {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Notifier{logger: logger}
}

// Configure sets up the backend. The logging notifier has no settings.
func (n *Notifier) Configure(settings map[string]string) error {
	return nil
}

// Send logs the notification and records it.
func (n *Notifier) Send(ctx context.Context, recipient, subject, body string) error {
	n.logger.Info(ctx, "notification",
		adapters.Field{Key: "recipient", Value: recipient},
		adapters.Field{Key: "subject", Value: subject},
		adapters.Field{Key: "body", Value: body})

	n.mu.Lock()
	n.sent = append(n.sent, Notification{Recipient: recipient, Subject: subject, Body: body})
	n.mu.Unlock()
	return nil
}

// Sent returns a copy of every notification sent so far.
func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.sent))
	copy(out, n.sent)
	return out
}
