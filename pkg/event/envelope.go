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

package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// S3Notification is the object-storage notification payload.
type S3Notification struct {
	Records []S3Record `json:"Records"`
}

// S3Record is a single record of an object-storage notification.
type S3Record struct {
	EventSource string `json:"eventSource"`
	AWSRegion   string `json:"awsRegion"`
	EventName   string `json:"eventName"`
	S3          S3Data `json:"s3"`
}

// S3Data holds the bucket and object of a notification record.
type S3Data struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

// S3Bucket identifies the source bucket.
type S3Bucket struct {
	Name string `json:"name"`
}

// S3Object identifies the mutated object. The key is percent-encoded with
// '+' for space.
type S3Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size,omitempty"`
}

// FanoutEnvelope is the publish/subscribe wrapper a notification arrives in
// when delivered through the fan-out broker (directly, or nested inside a
// queue message body).
type FanoutEnvelope struct {
	Type              string                     `json:"Type"`
	MessageID         string                     `json:"MessageId"`
	TopicArn          string                     `json:"TopicArn"`
	Message           string                     `json:"Message"`
	MessageAttributes map[string]FanoutAttribute `json:"MessageAttributes,omitempty"`
}

// FanoutAttribute is a typed message-level attribute of a fan-out envelope.
type FanoutAttribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

// captionPayload is the body of an attribute-change message.
type captionPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// wireAttrCommentType is the attribute name used on the wire.
const wireAttrCommentType = "comment_type"

// Decode unwraps a raw message body into canonical events. Bodies arrive
// one or two envelope levels deep depending on the delivery path: a queue
// message body holds a fan-out envelope holding the notification, while a
// direct fan-out delivery holds the notification itself. Nesting depth is
// resolved here so business logic never special-cases it.
func Decode(body []byte) ([]Event, error) {
	message := body
	attrs := map[string]string{}

	// Peel at most one fan-out envelope.
	var env FanoutEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		message = []byte(env.Message)
		if attr, ok := env.MessageAttributes[wireAttrCommentType]; ok {
			attrs[AttrCommentType] = attr.Value
		}
	}

	var note S3Notification
	if err := json.Unmarshal(message, &note); err == nil && len(note.Records) > 0 {
		events := make([]Event, 0, len(note.Records))
		for _, record := range note.Records {
			kind, err := kindOf(record.EventName)
			if err != nil {
				return nil, err
			}
			events = append(events, Event{
				Bucket:     record.S3.Bucket.Name,
				Key:        record.S3.Object.Key,
				Kind:       kind,
				Attributes: attrs,
			})
		}
		return events, nil
	}

	var caption captionPayload
	if err := json.Unmarshal(message, &caption); err != nil || caption.Name == "" {
		return nil, fmt.Errorf("unrecognized event payload: %s", message)
	}
	return []Event{{
		Key:         caption.Name,
		Kind:        AttributeChanged,
		Description: caption.Description,
		Attributes:  attrs,
	}}, nil
}

// kindOf maps a notification event name (e.g. "ObjectCreated:Put") to a
// mutation kind.
func kindOf(eventName string) (Kind, error) {
	switch {
	case strings.HasPrefix(eventName, "ObjectCreated"):
		return ObjectCreated, nil
	case strings.HasPrefix(eventName, "ObjectRemoved"):
		return ObjectRemoved, nil
	default:
		return 0, fmt.Errorf("unrecognized event name %q", eventName)
	}
}
