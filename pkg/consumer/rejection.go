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

package consumer

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/broker"
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/event"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
)

// Rejection drains the dead-letter queue and reports each failed image to a
// fixed recipient. Notification delivery is best-effort: a failed send is
// logged and never blocks the batch, so dead-lettered messages are always
// acknowledged.
type Rejection struct {
	notifier  common.Notifier
	recipient string
	logger    adapters.Logger
}

// NewRejection creates the rejection mail consumer.
func NewRejection(notifier common.Notifier, recipient string, logger adapters.Logger) *Rejection {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Rejection{notifier: notifier, recipient: recipient, logger: logger}
}

// HandleBatch processes a batch in delivery order. Always acknowledges.
func (c *Rejection) HandleBatch(ctx context.Context, batch []broker.Message) []error {
	for _, msg := range batch {
		if err := c.handle(ctx, msg.Body); err != nil {
			c.logger.Warn(ctx, "rejection notification dropped",
				adapters.Field{Key: "message_id", Value: msg.ID},
				adapters.Field{Key: "error", Value: err.Error()})
			metrics.EventsProcessed.WithLabelValues("rejection", metrics.StatusError).Inc()
			continue
		}
		metrics.EventsProcessed.WithLabelValues("rejection", metrics.StatusOK).Inc()
	}
	return nil
}

func (c *Rejection) handle(ctx context.Context, body []byte) error {
	subject := "Image rejected"
	text := fmt.Sprintf("A message could not be processed: %s", body)

	// A human-readable identifier when the payload still decodes; the raw
	// body otherwise, since dead-lettered payloads may be arbitrarily
	// malformed.
	if events, err := event.Decode(body); err == nil && len(events) > 0 {
		key := events[0].Key
		if normalized, err := event.NormalizeKey(key); err == nil {
			key = normalized
		}
		text = fmt.Sprintf("Your image %s could not be processed.", key)
	}

	sendCtx, cancel := context.WithTimeout(ctx, common.OpTimeout)
	defer cancel()
	return c.notifier.Send(sendCtx, c.recipient, subject, text)
}
