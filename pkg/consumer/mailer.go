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

// Mailer drains the acknowledgment queue and sends a confirmation for each
// uploaded image.
type Mailer struct {
	notifier  common.Notifier
	recipient string
	logger    adapters.Logger
}

// NewMailer creates the acknowledgment mail consumer.
func NewMailer(notifier common.Notifier, recipient string, logger adapters.Logger) *Mailer {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Mailer{notifier: notifier, recipient: recipient, logger: logger}
}

// HandleBatch processes a batch in delivery order, one result per message.
func (c *Mailer) HandleBatch(ctx context.Context, batch []broker.Message) []error {
	results := make([]error, len(batch))
	for i, msg := range batch {
		err := c.handle(ctx, msg.Body)
		if err != nil {
			c.logger.Error(ctx, "acknowledgment mail failed",
				adapters.Field{Key: "message_id", Value: msg.ID},
				adapters.Field{Key: "error", Value: err.Error()})
			metrics.EventsProcessed.WithLabelValues("mailer", metrics.StatusError).Inc()
		} else {
			metrics.EventsProcessed.WithLabelValues("mailer", metrics.StatusOK).Inc()
		}
		results[i] = err
	}
	return results
}

func (c *Mailer) handle(ctx context.Context, body []byte) error {
	events, err := event.Decode(body)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if ev.Kind != event.ObjectCreated {
			continue
		}

		key, err := event.NormalizeKey(ev.Key)
		if err != nil {
			return err
		}

		sendCtx, cancel := context.WithTimeout(ctx, common.OpTimeout)
		err = c.notifier.Send(sendCtx, c.recipient,
			"New image received",
			fmt.Sprintf("Your image %s was received in bucket %s.", key, ev.Bucket))
		cancel()
		if err != nil {
			return err
		}
	}
	return nil
}
