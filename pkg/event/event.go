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

// Package event defines the canonical pipeline event and the envelope
// decoding that produces it from object-storage notifications.
package event

import (
	"fmt"
	"net/url"
)

// Kind classifies the object-storage mutation an event describes.
type Kind int

const (
	// ObjectCreated indicates a new object was uploaded.
	ObjectCreated Kind = iota
	// ObjectRemoved indicates an object was deleted.
	ObjectRemoved
	// AttributeChanged indicates an out-of-band attribute update, such as a
	// caption being applied to an existing object.
	AttributeChanged
)

// String returns the string representation of the mutation kind.
func (k Kind) String() string {
	switch k {
	case ObjectCreated:
		return "ObjectCreated"
	case ObjectRemoved:
		return "ObjectRemoved"
	case AttributeChanged:
		return "AttributeChanged"
	default:
		return "Unknown"
	}
}

const (
	// AttrCommentType is the attribute key carrying the comment type of an
	// AttributeChanged event (wire name: comment_type).
	AttrCommentType = "commentType"

	// CaptionComment is the comment type handled by the update consumer.
	CaptionComment = "Caption"
)

// Event is the immutable unit flowing through the pipeline. The delivery
// envelope (receipt handle, receive count) is owned by the queue layer, not
// by the event.
type Event struct {
	// Bucket is the source bucket the mutation happened in.
	Bucket string `json:"bucket"`

	// Key is the object key exactly as it appeared on the wire
	// (percent-encoded, '+' for space). Normalize with NormalizeKey before
	// any store operation.
	Key string `json:"key"`

	// Kind is the mutation class.
	Kind Kind `json:"kind"`

	// Description carries the new descriptive text of an AttributeChanged
	// event. Empty otherwise.
	Description string `json:"description,omitempty"`

	// Attributes holds optional message-level annotations, e.g. commentType.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NormalizeKey decodes a wire-format object key: percent-decoding with '+'
// treated as space. Keys may contain spaces or non-ASCII characters.
func NormalizeKey(raw string) (string, error) {
	key, err := url.QueryUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("malformed object key %q: %w", raw, err)
	}
	return key, nil
}
