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

package common

import "context"

// RecordStore is the port to the key-value table holding item metadata.
// Implementations must serialize conflicting writes per key; no cross-key
// transactions are required.
type RecordStore interface {
	// Configure sets up the backend with the necessary credentials and settings.
	Configure(settings map[string]string) error

	// Get retrieves a record by id. Returns ErrRecordNotFound if absent.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores a record, replacing any existing record with the same id.
	// Re-processing the same creation event must converge on the same final
	// state: no duplicate, no error on the second attempt.
	Put(ctx context.Context, record *Record) error

	// Update applies a patch to an existing record. Returns
	// ErrRecordNotFound if the record is absent and ErrStorageWrite if the
	// record exists but the write fails.
	Update(ctx context.Context, id string, patch *RecordPatch) error

	// Delete removes a record by id. Deleting an absent id is not an error
	// (delete-if-exists semantics).
	Delete(ctx context.Context, id string) error
}

// ObjectFetcher is the port to the external object store the events refer
// to. Fetch failures other than ErrObjectNotFound are infrastructure
// failures and should be wrapped with Transient by implementations.
type ObjectFetcher interface {
	// Configure sets up the backend with the necessary credentials and settings.
	Configure(settings map[string]string) error

	// Fetch retrieves the object payload for bucket/key.
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Notifier is the port to the notification sink. Delivery is best-effort:
// the core pipeline never awaits a notification for correctness.
type Notifier interface {
	// Configure sets up the backend with the necessary credentials and settings.
	Configure(settings map[string]string) error

	// Send dispatches a message to the recipient.
	Send(ctx context.Context, recipient, subject, body string) error
}
