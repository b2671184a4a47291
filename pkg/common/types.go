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

// Package common defines the shared types, ports, and error kinds used by
// every pipeline component.
package common

import "time"

// Record is the persisted entity reconciled by the pipeline. A Record exists
// iff a validated creation event has been ingested and no later removal
// event has been processed for the same key.
type Record struct {
	// ID is the normalized object key and the primary key of the store.
	ID string `json:"id"`

	// SourceBucket is the bucket the object was uploaded to.
	SourceBucket string `json:"source_bucket"`

	// Description is optional descriptive text, set later by a caption
	// update event. Never populated at ingestion time.
	Description string `json:"description,omitempty"`
}

// RecordPatch describes the mutable subset of a Record applied by a
// conditional update. Only the description may change after ingestion.
type RecordPatch struct {
	Description string `json:"description"`
}

// OpTimeout bounds every external call (object fetch, store read/write,
// notification dispatch) made while processing a single event.
const OpTimeout = 3 * time.Second
