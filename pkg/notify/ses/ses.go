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

// Package ses provides an AWS SES implementation of the notifier.
package ses

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// SES is a notifier backed by AWS SES.
type SES struct {
	svc    *sesv2.Client
	sender string
}

// New creates a new SES notifier.
func New() *SES {
	return &SES{}
}

// Configure sets up the backend with the necessary settings.
// Required: sender. Optional: region, access_key_id, secret_access_key.
func (s *SES) Configure(settings map[string]string) error {
	s.sender = settings["sender"]
	if s.sender == "" {
		return common.ErrRecipientNotSet
	}

	ctx := context.TODO()
	var opts []func(*config.LoadOptions) error

	if region := settings["region"]; region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if key, secret := settings["access_key_id"], settings["secret_access_key"]; key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return err
	}

	s.svc = sesv2.NewFromConfig(cfg)
	return nil
}

// Send dispatches an email to the recipient.
func (s *SES) Send(ctx context.Context, recipient, subject, body string) error {
	if s.svc == nil {
		return common.ErrNotConfigured
	}

	_, err := s.svc.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return common.Transient("notification send", err)
	}
	return nil
}
