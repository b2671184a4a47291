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

import (
	"errors"
	"fmt"
)

var (
	// Validation errors (permanent)

	// ErrNoExtension is returned when an object key carries no extractable
	// file extension.
	ErrNoExtension = errors.New("could not determine the image type")

	// ErrUnsupportedType is returned when an object key's extension is not
	// in the allow-list.
	ErrUnsupportedType = errors.New("unsupported image type")

	// Store errors

	// ErrRecordNotFound is returned when an operation requires an existing
	// record and none is present. Permanent: a retry will not create it.
	ErrRecordNotFound = errors.New("target record does not exist")

	// ErrStorageWrite is returned when a write against a verified-existing
	// record fails at the storage layer. Distinct from ErrRecordNotFound.
	ErrStorageWrite = errors.New("storage write failed")

	// Fetch errors

	// ErrObjectNotFound is returned when the referenced object is absent
	// from the source bucket.
	ErrObjectNotFound = errors.New("object not found")

	// Configuration errors

	// ErrNotConfigured is returned when a backend is not properly configured.
	ErrNotConfigured = errors.New("not configured")

	// ErrRegionNotSet is returned when the required region is not set.
	ErrRegionNotSet = errors.New("region not set")

	// ErrTableNotSet is returned when the required table name is not set.
	ErrTableNotSet = errors.New("table not set")

	// ErrRecipientNotSet is returned when the notification recipient is not set.
	ErrRecipientNotSet = errors.New("recipient not set")
)

// Transient wraps an infrastructure failure (timeout, throttling, broken
// connection) so callers can tell it apart from a business-rule error.
// Transient errors are eligible for queue redelivery.
func Transient(op string, err error) error {
	return &transientError{op: op, err: err}
}

type transientError struct {
	op  string
	err error
}

func (e *transientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.op, e.err)
}

func (e *transientError) Unwrap() error { return e.err }

// IsTransient reports whether err (or anything it wraps) was marked
// transient via Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// IsPermanent reports whether err will not succeed on redelivery. The queue
// layer does not consult this; it exists for logging and metrics so
// operators can tell bad input apart from infrastructure hiccups.
func IsPermanent(err error) bool {
	return err != nil && !IsTransient(err)
}
