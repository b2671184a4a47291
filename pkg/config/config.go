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

// Package config resolves the operational configuration once at process
// start.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds the pipeline configuration settings.
type Config struct {
	// Backend selection: memory/log for local runs, dynamodb/s3/ses on AWS.
	StoreBackend    string
	FetcherBackend  string
	NotifierBackend string

	// AWS settings shared by the AWS backends.
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	Table    string // record store table name
	Sender   string // notification sender address
	Endpoint string // custom endpoint for S3-compatible stores

	// Recipient is the fixed address notifications are sent to.
	Recipient string

	// Provisioned SNS/SQS topology, consumed by the aws build's run-aws and
	// publish commands.
	IngestQueueURL    string
	MailerQueueURL    string
	RejectionQueueURL string
	RemovedQueueURL   string
	CreatedTopicARN   string

	// WatchDir, when set, enables the local filesystem event source.
	WatchDir string

	// OpsListen is the health/metrics listen address.
	OpsListen string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Init initializes the configuration using Viper.
// Configuration priority: flags > env vars > config file > defaults.
func Init(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("store-backend", "memory")
	v.SetDefault("fetcher-backend", "memory")
	v.SetDefault("notifier-backend", "log")
	v.SetDefault("ops-listen", ":9090")
	v.SetDefault("log-level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".imagepipe")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("IMAGEPIPE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return v, nil
}

// Get extracts the configuration from Viper into a Config struct.
func Get(v *viper.Viper) *Config {
	return &Config{
		StoreBackend:      v.GetString("store-backend"),
		FetcherBackend:    v.GetString("fetcher-backend"),
		NotifierBackend:   v.GetString("notifier-backend"),
		Region:            v.GetString("region"),
		AccessKeyID:       v.GetString("access-key"),
		SecretAccessKey:   v.GetString("secret-key"),
		Table:             v.GetString("table"),
		Sender:            v.GetString("sender"),
		Endpoint:          v.GetString("endpoint"),
		Recipient:         v.GetString("recipient"),
		IngestQueueURL:    v.GetString("ingest-queue-url"),
		MailerQueueURL:    v.GetString("mailer-queue-url"),
		RejectionQueueURL: v.GetString("rejection-queue-url"),
		RemovedQueueURL:   v.GetString("removed-queue-url"),
		CreatedTopicARN:   v.GetString("created-topic-arn"),
		WatchDir:          v.GetString("watch-dir"),
		OpsListen:         v.GetString("ops-listen"),
		LogLevel:          v.GetString("log-level"),
	}
}

// Settings converts Config to backend settings maps.
func (c *Config) Settings() map[string]string {
	settings := make(map[string]string)
	if c.Region != "" {
		settings["region"] = c.Region
	}
	if c.AccessKeyID != "" {
		settings["access_key_id"] = c.AccessKeyID
	}
	if c.SecretAccessKey != "" {
		settings["secret_access_key"] = c.SecretAccessKey
	}
	if c.Table != "" {
		settings["table"] = c.Table
	}
	if c.Sender != "" {
		settings["sender"] = c.Sender
	}
	if c.Endpoint != "" {
		settings["endpoint"] = c.Endpoint
	}
	return settings
}
