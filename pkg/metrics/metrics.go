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

// Package metrics exposes the pipeline's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagepipe_events_published_total",
		Help: "Total number of events published, labelled by topic.",
	}, []string{"topic"})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagepipe_events_processed_total",
		Help: "Total number of events handled, labelled by consumer and status.",
	}, []string{"consumer", "status"})

	EventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagepipe_events_rejected_total",
		Help: "Total number of events rejected by validation.",
	})

	DeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagepipe_dead_lettered_total",
		Help: "Total number of messages forwarded to a dead-letter queue, labelled by queue.",
	}, []string{"queue"})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imagepipe_batch_duration_seconds",
		Help:    "Batch processing latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

const (
	// StatusOK labels a successfully handled event.
	StatusOK = "ok"
	// StatusError labels a failed event.
	StatusError = "error"
)
