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

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

func TestNew(t *testing.T) {
	store := New()
	if store == nil {
		t.Fatal("New() returned nil")
	}
}

func TestConfigure(t *testing.T) {
	store := New()
	if err := store.Configure(nil); err != nil {
		t.Fatalf("Configure() returned error: %v", err)
	}
	if err := store.Configure(map[string]string{"any": "setting"}); err != nil {
		t.Fatalf("Configure() with settings returned error: %v", err)
	}
}

func TestPutAndGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	record := &common.Record{ID: "vacation.jpeg", SourceBucket: "bucketX"}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}

	got, err := store.Get(ctx, "vacation.jpeg")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got.ID != "vacation.jpeg" || got.SourceBucket != "bucketX" || got.Description != "" {
		t.Fatalf("Get() = %+v, want stored record", got)
	}
}

func TestPutIsIdempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	record := &common.Record{ID: "dup.png", SourceBucket: "bucketX"}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("first Put() returned error: %v", err)
	}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("second Put() returned error: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d records, want 1", store.Len())
	}
}

func TestGetMissing(t *testing.T) {
	store := New()
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, common.ErrRecordNotFound) {
		t.Fatalf("Get() error = %v, want ErrRecordNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Put(ctx, &common.Record{ID: "a.png", SourceBucket: "b"}); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	if err := store.Update(ctx, "a.png", &common.RecordPatch{Description: "Sunset"}); err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}

	got, err := store.Get(ctx, "a.png")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got.Description != "Sunset" {
		t.Fatalf("Description = %q, want Sunset", got.Description)
	}
	if got.SourceBucket != "b" {
		t.Fatalf("SourceBucket changed to %q", got.SourceBucket)
	}
}

func TestUpdateMissing(t *testing.T) {
	store := New()
	err := store.Update(context.Background(), "missing", &common.RecordPatch{Description: "x"})
	if !errors.Is(err, common.ErrRecordNotFound) {
		t.Fatalf("Update() error = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Put(ctx, &common.Record{ID: "gone.png", SourceBucket: "b"}); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	if err := store.Delete(ctx, "gone.png"); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}
	if err := store.Delete(ctx, "gone.png"); err != nil {
		t.Fatalf("Delete() of absent id returned error: %v", err)
	}
	if _, err := store.Get(ctx, "gone.png"); !errors.Is(err, common.ErrRecordNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrRecordNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Put(ctx, &common.Record{ID: "a.png", SourceBucket: "b"}); err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}
	got, _ := store.Get(ctx, "a.png")
	got.Description = "mutated"

	fresh, _ := store.Get(ctx, "a.png")
	if fresh.Description != "" {
		t.Fatal("Get() exposed internal state")
	}
}

func TestCancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, &common.Record{ID: "a.png"}); err == nil {
		t.Fatal("Put() with cancelled context succeeded")
	}
}
