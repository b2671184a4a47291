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

package factory

import (
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	"github.com/jeremyhahn/go-imagepipe/pkg/fetch/s3"
	"github.com/jeremyhahn/go-imagepipe/pkg/notify"
	"github.com/jeremyhahn/go-imagepipe/pkg/notify/ses"
	"github.com/jeremyhahn/go-imagepipe/pkg/store/dynamodb"
)

func init() {
	RegisterStore("dynamodb", func(settings map[string]string) (common.RecordStore, error) {
		store := dynamodb.New()
		if err := store.Configure(settings); err != nil {
			return nil, err
		}
		return store, nil
	})

	RegisterFetcher("s3", func(settings map[string]string) (common.ObjectFetcher, error) {
		fetcher := s3.New()
		if err := fetcher.Configure(settings); err != nil {
			return nil, err
		}
		return fetcher, nil
	})

	RegisterNotifier("ses", func(settings map[string]string) (common.Notifier, error) {
		notifier := notify.NewRateLimited(ses.New(), notify.DefaultSendRate, notify.DefaultSendBurst)
		if err := notifier.Configure(settings); err != nil {
			return nil, err
		}
		return notifier, nil
	})
}
