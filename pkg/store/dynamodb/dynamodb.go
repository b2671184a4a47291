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

// Package dynamodb provides a DynamoDB implementation of the record store.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// item is the table representation of a record. The table is keyed by
// ImageName.
type item struct {
	ImageName   string `dynamodbav:"ImageName"`
	Bucket      string `dynamodbav:"Bucket"`
	Description string `dynamodbav:"Description,omitempty"`
}

// DynamoDB is a record store backend for an AWS DynamoDB table.
type DynamoDB struct {
	svc   *dynamodb.Client
	table string
}

// New creates a new DynamoDB record store backend.
func New() *DynamoDB {
	return &DynamoDB{}
}

// Configure sets up the backend with the necessary settings.
// Required: table. Optional: region, endpoint, access_key_id,
// secret_access_key.
func (d *DynamoDB) Configure(settings map[string]string) error {
	d.table = settings["table"]
	if d.table == "" {
		return common.ErrTableNotSet
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

	var clientOpts []func(*dynamodb.Options)
	if endpoint := settings["endpoint"]; endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	d.svc = dynamodb.NewFromConfig(cfg, clientOpts...)
	return nil
}

// Get retrieves a record by id.
func (d *DynamoDB) Get(ctx context.Context, id string) (*common.Record, error) {
	if d.svc == nil {
		return nil, common.ErrNotConfigured
	}

	out, err := d.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       itemKey(id),
	})
	if err != nil {
		return nil, common.Transient("record store get", err)
	}
	if out.Item == nil {
		return nil, common.ErrRecordNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal record %q: %w", id, err)
	}
	return &common.Record{
		ID:           it.ImageName,
		SourceBucket: it.Bucket,
		Description:  it.Description,
	}, nil
}

// Put stores a record, replacing any existing record with the same id.
// PutItem overwrites by key, so duplicate deliveries converge naturally.
func (d *DynamoDB) Put(ctx context.Context, record *common.Record) error {
	if d.svc == nil {
		return common.ErrNotConfigured
	}

	av, err := attributevalue.MarshalMap(item{
		ImageName:   record.ID,
		Bucket:      record.SourceBucket,
		Description: record.Description,
	})
	if err != nil {
		return fmt.Errorf("marshal record %q: %w", record.ID, err)
	}

	_, err = d.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	})
	if err != nil {
		return common.Transient("record store put", err)
	}
	return nil
}

// Update applies a patch to an existing record. The existence condition is
// enforced server-side so a concurrent delete cannot resurrect the record.
func (d *DynamoDB) Update(ctx context.Context, id string, patch *common.RecordPatch) error {
	if d.svc == nil {
		return common.ErrNotConfigured
	}

	_, err := d.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 itemKey(id),
		ConditionExpression: aws.String("attribute_exists(ImageName)"),
		UpdateExpression:    aws.String("SET Description = :description"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":description": &types.AttributeValueMemberS{Value: patch.Description},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return common.ErrRecordNotFound
		}
		return fmt.Errorf("%w: %s: %v", common.ErrStorageWrite, id, err)
	}
	return nil
}

// Delete removes a record by id. DeleteItem on an absent key succeeds, so
// deletion is idempotent.
func (d *DynamoDB) Delete(ctx context.Context, id string) error {
	if d.svc == nil {
		return common.ErrNotConfigured
	}

	_, err := d.svc.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       itemKey(id),
	})
	if err != nil {
		return common.Transient("record store delete", err)
	}
	return nil
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ImageName": &types.AttributeValueMemberS{Value: id},
	}
}
