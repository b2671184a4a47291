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

//go:build aws

// Package awsbroker provides SNS/SQS equivalents of the in-process broker
// for production deployments, where topics, queue redelivery, and
// dead-lettering are provisioned server-side.
package awsbroker

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/metrics"
)

// Publisher publishes event payloads to an SNS topic.
type Publisher struct {
	svc      *sns.Client
	topicArn string
	name     string
}

// NewPublisher creates a publisher for the given topic ARN.
func NewPublisher(svc *sns.Client, name, topicArn string) *Publisher {
	return &Publisher{svc: svc, topicArn: topicArn, name: name}
}

// Publish sends body to the topic with optional message attributes.
func (p *Publisher) Publish(ctx context.Context, body []byte, attrs map[string]string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Message:  aws.String(string(body)),
	}
	if len(attrs) > 0 {
		input.MessageAttributes = make(map[string]snstypes.MessageAttributeValue, len(attrs))
		for k, v := range attrs {
			input.MessageAttributes[k] = snstypes.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	if _, err := p.svc.Publish(ctx, input); err != nil {
		return common.Transient("topic publish", err)
	}
	metrics.EventsPublished.WithLabelValues(p.name).Inc()
	return nil
}
