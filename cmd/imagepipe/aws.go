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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/broker"
	"github.com/jeremyhahn/go-imagepipe/pkg/broker/awsbroker"
	"github.com/jeremyhahn/go-imagepipe/pkg/consumer"
	"github.com/jeremyhahn/go-imagepipe/pkg/event"
	"github.com/jeremyhahn/go-imagepipe/pkg/factory"
	"github.com/jeremyhahn/go-imagepipe/pkg/server"
)

// awsClientConfig loads the SDK configuration from the resolved settings.
func awsClientConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if globalConfig.Region != "" {
		opts = append(opts, awsconfig.WithRegion(globalConfig.Region))
	}
	if globalConfig.AccessKeyID != "" && globalConfig.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				globalConfig.AccessKeyID, globalConfig.SecretAccessKey, "")))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

var runAWSCmd = &cobra.Command{
	Use:   "run-aws",
	Short: "Run the consumers against a provisioned SNS/SQS topology",
	Long: `Long-poll the provisioned SQS queues and run the consumers against
them. Topics, queue subscriptions, redelivery, and dead-lettering are
provisioned server-side; configure the queue URLs the consumers should
drain. Queues without a URL are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := adapters.NewDefaultLogger(logLevel(globalConfig.LogLevel))
		settings := globalConfig.Settings()

		store, err := factory.NewStore(globalConfig.StoreBackend, settings)
		if err != nil {
			return fmt.Errorf("store backend %q: %w", globalConfig.StoreBackend, err)
		}
		fetcher, err := factory.NewFetcher(globalConfig.FetcherBackend, settings)
		if err != nil {
			return fmt.Errorf("fetcher backend %q: %w", globalConfig.FetcherBackend, err)
		}
		notifier, err := factory.NewNotifier(globalConfig.NotifierBackend, settings)
		if err != nil {
			return fmt.Errorf("notifier backend %q: %w", globalConfig.NotifierBackend, err)
		}

		awsCfg, err := awsClientConfig(cmd.Context())
		if err != nil {
			return err
		}
		svc := sqs.NewFromConfig(awsCfg)

		ingest := consumer.NewIngest(store, fetcher, logger)
		mailer := consumer.NewMailer(notifier, globalConfig.Recipient, logger)
		rejection := consumer.NewRejection(notifier, globalConfig.Recipient, logger)
		deletion := consumer.NewDeletion(store, logger)
		update := consumer.NewUpdate(store, logger)

		// The removal/update queue feeds both consumers; each filters by
		// event kind, mirroring the direct topic subscriptions.
		removed := func(ctx context.Context, batch []broker.Message) []error {
			results := make([]error, len(batch))
			for i, msg := range batch {
				if err := deletion.Handle(ctx, msg.Body); err != nil {
					results[i] = err
					continue
				}
				results[i] = update.Handle(ctx, msg.Body)
			}
			return results
		}

		bindings := []struct {
			name    string
			url     string
			handler broker.BatchHandler
		}{
			{"image-process", globalConfig.IngestQueueURL, ingest.HandleBatch},
			{"mailer", globalConfig.MailerQueueURL, mailer.HandleBatch},
			{"rejection", globalConfig.RejectionQueueURL, rejection.HandleBatch},
			{"removed", globalConfig.RemovedQueueURL, removed},
		}

		var sources []*awsbroker.QueueSource
		for _, b := range bindings {
			if b.url == "" {
				continue
			}
			src := awsbroker.NewQueueSource(svc, awsbroker.QueueSourceConfig{
				Name:     b.name,
				QueueURL: b.url,
				Logger:   logger,
			}, b.handler)
			src.Start()
			sources = append(sources, src)
		}
		if len(sources) == 0 {
			return errors.New("no queue URLs configured")
		}
		defer func() {
			for _, s := range sources {
				s.Stop()
			}
		}()

		ops := server.NewOps(globalConfig.OpsListen, logger)
		ops.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ops.Shutdown(ctx)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(context.Background(), "shutting down")
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <bucket> <key>",
	Short: "Publish a creation notification to the creation topic",
	Example: `  imagepipe publish images-bucket vacation.jpeg \
    --created-topic-arn arn:aws:sns:us-east-1:123456789012:ObjectCreated`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if globalConfig.CreatedTopicARN == "" {
			return errors.New("created-topic-arn not set")
		}

		body, err := json.Marshal(event.S3Notification{
			Records: []event.S3Record{{
				EventSource: "imagepipe:publish",
				EventName:   "ObjectCreated:Put",
				S3: event.S3Data{
					Bucket: event.S3Bucket{Name: args[0]},
					Object: event.S3Object{Key: args[1]},
				},
			}},
		})
		if err != nil {
			return err
		}

		awsCfg, err := awsClientConfig(cmd.Context())
		if err != nil {
			return err
		}
		publisher := awsbroker.NewPublisher(sns.NewFromConfig(awsCfg),
			"ObjectCreated", globalConfig.CreatedTopicARN)
		if err := publisher.Publish(cmd.Context(), body, nil); err != nil {
			return err
		}
		fmt.Printf("published %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	runAWSCmd.Flags().String("store-backend", "dynamodb", "record store backend (memory, dynamodb)")
	runAWSCmd.Flags().String("fetcher-backend", "s3", "object fetcher backend (memory, s3)")
	runAWSCmd.Flags().String("notifier-backend", "ses", "notifier backend (log, ses)")
	runAWSCmd.Flags().String("region", "", "AWS region")
	runAWSCmd.Flags().String("table", "", "record store table name")
	runAWSCmd.Flags().String("sender", "", "notification sender address")
	runAWSCmd.Flags().String("recipient", "", "notification recipient address")
	runAWSCmd.Flags().String("ingest-queue-url", "", "ingest queue URL")
	runAWSCmd.Flags().String("mailer-queue-url", "", "acknowledgment mail queue URL")
	runAWSCmd.Flags().String("rejection-queue-url", "", "rejection (dead-letter) queue URL")
	runAWSCmd.Flags().String("removed-queue-url", "", "removal/update queue URL")
	runAWSCmd.Flags().String("ops-listen", ":9090", "health/metrics listen address")
	runAWSCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	publishCmd.Flags().String("created-topic-arn", "", "creation topic ARN")
	publishCmd.Flags().String("region", "", "AWS region")

	rootCmd.AddCommand(runAWSCmd)
	rootCmd.AddCommand(publishCmd)
}
