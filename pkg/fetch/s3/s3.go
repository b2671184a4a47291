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

// Package s3 provides an AWS S3 implementation of the object fetcher.
package s3

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// S3 is an object fetcher backed by AWS S3.
type S3 struct {
	svc *s3.Client
}

// New creates a new S3 object fetcher.
func New() *S3 {
	return &S3{}
}

// Configure sets up the backend with the necessary settings.
// Optional: region, endpoint, access_key_id, secret_access_key, use_path_style.
func (s *S3) Configure(settings map[string]string) error {
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

	var clientOpts []func(*s3.Options)
	if endpoint := settings["endpoint"]; endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if settings["use_path_style"] == "true" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	s.svc = s3.NewFromConfig(cfg, clientOpts...)
	return nil
}

// Fetch retrieves the object payload for bucket/key.
func (s *S3) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.svc == nil {
		return nil, common.ErrNotConfigured
	}

	out, err := s.svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, common.ErrObjectNotFound
		}
		return nil, common.Transient("object fetch", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, common.Transient("object read", err)
	}
	return data, nil
}
