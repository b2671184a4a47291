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

// Package fswatch is a local development event source: it watches a
// directory and publishes creation/removal notifications into the pipeline,
// standing in for bucket notifications.
package fswatch

import (
	"context"
	"encoding/json"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/event"
	"github.com/jeremyhahn/go-imagepipe/pkg/pipeline"
)

// Watcher translates filesystem changes in a directory into pipeline
// events. The directory name doubles as the bucket name.
type Watcher struct {
	dir     string
	bucket  string
	watcher *fsnotify.Watcher
	pipe    *pipeline.Pipeline
	logger  adapters.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher publishing into pipe. The watch starts on Start.
func New(dir string, pipe *pipeline.Pipeline, logger adapters.Logger) (*Watcher, error) {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:     filepath.Clean(dir),
		bucket:  filepath.Base(filepath.Clean(dir)),
		watcher: fw,
		pipe:    pipe,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.run()
	w.logger.Info(w.ctx, "watching directory",
		adapters.Field{Key: "dir", Value: w.dir},
		adapters.Field{Key: "bucket", Value: w.bucket})
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.translate(fsEvent)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(w.ctx, "watch error",
				adapters.Field{Key: "error", Value: err.Error()})
		}
	}
}

func (w *Watcher) translate(fsEvent fsnotify.Event) {
	var eventName string
	switch {
	case fsEvent.Has(fsnotify.Create):
		eventName = "ObjectCreated:Put"
	case fsEvent.Has(fsnotify.Remove):
		eventName = "ObjectRemoved:Delete"
	default:
		return
	}

	key, err := filepath.Rel(w.dir, fsEvent.Name)
	if err != nil {
		key = filepath.Base(fsEvent.Name)
	}

	body, err := json.Marshal(event.S3Notification{
		Records: []event.S3Record{{
			EventSource: "local:fswatch",
			EventName:   eventName,
			S3: event.S3Data{
				Bucket: event.S3Bucket{Name: w.bucket},
				Object: event.S3Object{Key: url.QueryEscape(key)},
			},
		}},
	})
	if err != nil {
		w.logger.Error(w.ctx, "marshal notification",
			adapters.Field{Key: "error", Value: err.Error()})
		return
	}

	if eventName == "ObjectCreated:Put" {
		w.pipe.PublishCreated(w.ctx, body)
	} else {
		w.pipe.PublishRemovedOrUpdated(w.ctx, body)
	}
}
