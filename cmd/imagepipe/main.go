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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/config"
	"github.com/jeremyhahn/go-imagepipe/pkg/factory"
	"github.com/jeremyhahn/go-imagepipe/pkg/pipeline"
	"github.com/jeremyhahn/go-imagepipe/pkg/server"
	"github.com/jeremyhahn/go-imagepipe/pkg/source/fswatch"
	"github.com/jeremyhahn/go-imagepipe/pkg/validate"
	"github.com/jeremyhahn/go-imagepipe/pkg/version"
)

var (
	cfgFile      string
	viperConfig  *viper.Viper
	globalConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "imagepipe",
	Short: "An event-driven image ingestion pipeline",
	Long: `imagepipe reacts to object-storage mutations and keeps an image
record store synchronized: uploads are validated and ingested, removals
delete the record, caption events patch it, and invalid uploads are
dead-lettered and reported.

Backends:
  - store    : memory, dynamodb
  - fetcher  : memory, s3
  - notifier : log, ses

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (IMAGEPIPE_*)
  - Configuration file (~/.imagepipe.yaml or ./.imagepipe.yaml)
  - Default values (lowest priority)`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		viperConfig, err = config.Init(cfgFile)
		if err != nil {
			return err
		}

		if err := viperConfig.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}

		globalConfig = config.Get(viperConfig)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline",
	Long: `Start the pipeline: resolve the topic/queue topology, launch the
consumers and the ops endpoint, and process events until interrupted.`,
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

		pipe := pipeline.New(store, fetcher, notifier, pipeline.Config{
			Recipient: globalConfig.Recipient,
			Logger:    logger,
		})
		pipe.Start()
		defer pipe.Stop()

		ops := server.NewOps(globalConfig.OpsListen, logger)
		ops.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ops.Shutdown(ctx)
		}()

		if globalConfig.WatchDir != "" {
			watcher, err := fswatch.New(globalConfig.WatchDir, pipe, logger)
			if err != nil {
				return fmt.Errorf("watch %q: %w", globalConfig.WatchDir, err)
			}
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("watch %q: %w", globalConfig.WatchDir, err)
			}
			defer watcher.Stop()
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(context.Background(), "shutting down")
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <object-key>",
	Short: "Classify an object key against the image type allow-list",
	Example: `  imagepipe classify vacation.jpeg
  imagepipe classify malware.exe`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imageType, err := validate.Classify(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("accepted: %s\n", imageType)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get())
	},
}

func logLevel(s string) adapters.LogLevel {
	switch s {
	case "debug":
		return adapters.DebugLevel
	case "warn":
		return adapters.WarnLevel
	case "error":
		return adapters.ErrorLevel
	default:
		return adapters.InfoLevel
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./.imagepipe.yaml)")

	runCmd.Flags().String("store-backend", "memory", "record store backend (memory, dynamodb)")
	runCmd.Flags().String("fetcher-backend", "memory", "object fetcher backend (memory, s3)")
	runCmd.Flags().String("notifier-backend", "log", "notifier backend (log, ses)")
	runCmd.Flags().String("region", "", "AWS region")
	runCmd.Flags().String("table", "", "record store table name")
	runCmd.Flags().String("sender", "", "notification sender address")
	runCmd.Flags().String("recipient", "", "notification recipient address")
	runCmd.Flags().String("watch-dir", "", "directory to watch for local events")
	runCmd.Flags().String("ops-listen", ":9090", "health/metrics listen address")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
}
