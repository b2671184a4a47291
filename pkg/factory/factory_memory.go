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

package factory

import (
	"github.com/jeremyhahn/go-imagepipe/pkg/adapters"
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	fetchmemory "github.com/jeremyhahn/go-imagepipe/pkg/fetch/memory"
	lognotify "github.com/jeremyhahn/go-imagepipe/pkg/notify/log"
	storememory "github.com/jeremyhahn/go-imagepipe/pkg/store/memory"
)

func init() {
	RegisterStore("memory", func(settings map[string]string) (common.RecordStore, error) {
		store := storememory.New()
		if err := store.Configure(settings); err != nil {
			return nil, err
		}
		return store, nil
	})

	RegisterFetcher("memory", func(settings map[string]string) (common.ObjectFetcher, error) {
		fetcher := fetchmemory.New()
		if err := fetcher.Configure(settings); err != nil {
			return nil, err
		}
		return fetcher, nil
	})

	RegisterNotifier("log", func(settings map[string]string) (common.Notifier, error) {
		notifier := lognotify.New(adapters.NewDefaultLogger(adapters.InfoLevel))
		if err := notifier.Configure(settings); err != nil {
			return nil, err
		}
		return notifier, nil
	})
}
