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

package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransient(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient("dynamodb put", cause)

	if !IsTransient(err) {
		t.Fatal("Transient() result not recognized as transient")
	}
	if IsPermanent(err) {
		t.Fatal("transient error classified permanent")
	}
	if !errors.Is(err, cause) {
		t.Fatal("Transient() lost the wrapped cause")
	}
}

func TestTransientSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("persist %q: %w", "a.png", Transient("put", errors.New("throttled")))
	if !IsTransient(err) {
		t.Fatal("wrapping hid the transient marker")
	}
}

func TestPermanentClassification(t *testing.T) {
	for _, err := range []error{ErrNoExtension, ErrUnsupportedType, ErrRecordNotFound, ErrStorageWrite} {
		if !IsPermanent(err) {
			t.Fatalf("%v should classify permanent", err)
		}
		if IsTransient(err) {
			t.Fatalf("%v should not classify transient", err)
		}
	}
}

func TestIsPermanentNil(t *testing.T) {
	if IsPermanent(nil) {
		t.Fatal("nil classified permanent")
	}
	if IsTransient(nil) {
		t.Fatal("nil classified transient")
	}
}

func TestRecordNotFoundDistinctFromStorageWrite(t *testing.T) {
	if errors.Is(ErrRecordNotFound, ErrStorageWrite) || errors.Is(ErrStorageWrite, ErrRecordNotFound) {
		t.Fatal("missing record and failed write must stay distinct error kinds")
	}
}
