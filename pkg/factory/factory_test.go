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
	"errors"
	"testing"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
	storememory "github.com/jeremyhahn/go-imagepipe/pkg/store/memory"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore("memory", nil)
	if err != nil {
		t.Fatalf("NewStore() returned error: %v", err)
	}
	if store == nil {
		t.Fatal("NewStore() returned nil store")
	}
}

func TestNewFetcherMemory(t *testing.T) {
	fetcher, err := NewFetcher("memory", map[string]string{"ignored": "setting"})
	if err != nil {
		t.Fatalf("NewFetcher() returned error: %v", err)
	}
	if fetcher == nil {
		t.Fatal("NewFetcher() returned nil fetcher")
	}
}

func TestNewNotifierLog(t *testing.T) {
	notifier, err := NewNotifier("log", nil)
	if err != nil {
		t.Fatalf("NewNotifier() returned error: %v", err)
	}
	if notifier == nil {
		t.Fatal("NewNotifier() returned nil notifier")
	}
}

func TestUnknownBackend(t *testing.T) {
	if _, err := NewStore("bogus", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("NewStore() error = %v, want ErrUnknownBackend", err)
	}
	if _, err := NewFetcher("bogus", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("NewFetcher() error = %v, want ErrUnknownBackend", err)
	}
	if _, err := NewNotifier("bogus", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("NewNotifier() error = %v, want ErrUnknownBackend", err)
	}
}

func TestRegisterCustomBackend(t *testing.T) {
	called := false
	RegisterStore("custom-test", func(settings map[string]string) (common.RecordStore, error) {
		called = true
		return storememory.New(), nil
	})

	if _, err := NewStore("custom-test", nil); err != nil {
		t.Fatalf("NewStore() returned error: %v", err)
	}
	if !called {
		t.Fatal("registered creator was not invoked")
	}
}
