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

// Package factory creates record store, object fetcher, and notifier
// backends by type name.
package factory

import (
	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// StoreCreator is a function that creates a record store backend.
type StoreCreator func(settings map[string]string) (common.RecordStore, error)

// FetcherCreator is a function that creates an object fetcher backend.
type FetcherCreator func(settings map[string]string) (common.ObjectFetcher, error)

// NotifierCreator is a function that creates a notifier backend.
type NotifierCreator func(settings map[string]string) (common.Notifier, error)

var (
	storeRegistry    = make(map[string]StoreCreator)
	fetcherRegistry  = make(map[string]FetcherCreator)
	notifierRegistry = make(map[string]NotifierCreator)
)

// RegisterStore registers a record store backend creator.
func RegisterStore(backendType string, creator StoreCreator) {
	storeRegistry[backendType] = creator
}

// RegisterFetcher registers an object fetcher backend creator.
func RegisterFetcher(backendType string, creator FetcherCreator) {
	fetcherRegistry[backendType] = creator
}

// RegisterNotifier registers a notifier backend creator.
func RegisterNotifier(backendType string, creator NotifierCreator) {
	notifierRegistry[backendType] = creator
}

// NewStore creates a new record store backend based on the given type.
func NewStore(backendType string, settings map[string]string) (common.RecordStore, error) {
	creator, exists := storeRegistry[backendType]
	if !exists {
		return nil, ErrUnknownBackend
	}
	return creator(settings)
}

// NewFetcher creates a new object fetcher backend based on the given type.
func NewFetcher(backendType string, settings map[string]string) (common.ObjectFetcher, error) {
	creator, exists := fetcherRegistry[backendType]
	if !exists {
		return nil, ErrUnknownBackend
	}
	return creator(settings)
}

// NewNotifier creates a new notifier backend based on the given type.
func NewNotifier(backendType string, settings map[string]string) (common.Notifier, error) {
	creator, exists := notifierRegistry[backendType]
	if !exists {
		return nil, ErrUnknownBackend
	}
	return creator(settings)
}
