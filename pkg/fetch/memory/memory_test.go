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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

func TestFetch(t *testing.T) {
	fetcher := New()
	fetcher.Store("bucketX", "vacation.jpeg", []byte("image-bytes"))

	data, err := fetcher.Fetch(context.Background(), "bucketX", "vacation.jpeg")
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}
	if !bytes.Equal(data, []byte("image-bytes")) {
		t.Fatalf("Fetch() = %q, want image-bytes", data)
	}
}

func TestFetchMissing(t *testing.T) {
	fetcher := New()
	_, err := fetcher.Fetch(context.Background(), "bucketX", "missing.png")
	if !errors.Is(err, common.ErrObjectNotFound) {
		t.Fatalf("Fetch() error = %v, want ErrObjectNotFound", err)
	}
}

func TestFetchReturnsCopy(t *testing.T) {
	fetcher := New()
	fetcher.Store("b", "k.png", []byte("abc"))

	data, _ := fetcher.Fetch(context.Background(), "b", "k.png")
	data[0] = 'x'

	fresh, _ := fetcher.Fetch(context.Background(), "b", "k.png")
	if !bytes.Equal(fresh, []byte("abc")) {
		t.Fatal("Fetch() exposed internal state")
	}
}
