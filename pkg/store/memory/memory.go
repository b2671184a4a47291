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

// Package memory provides an in-memory implementation of the record store.
// This is useful for testing, development, and scenarios where persistence
// is not required.
package memory

import (
	"context"
	"sync"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// Memory is a record store backend that keeps records in a map.
type Memory struct {
	mu      sync.RWMutex
	records map[string]common.Record
}

// New creates a new Memory record store backend.
func New() *Memory {
	return &Memory{
		records: make(map[string]common.Record),
	}
}

// Configure sets up the backend with the necessary settings.
// The memory backend has no required settings.
func (m *Memory) Configure(settings map[string]string) error {
	return nil
}

// Get retrieves a record by id.
func (m *Memory) Get(ctx context.Context, id string) (*common.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	record, ok := m.records[id]
	m.mu.RUnlock()

	if !ok {
		return nil, common.ErrRecordNotFound
	}
	// Copy so callers cannot mutate stored state.
	return &record, nil
}

// Put stores a record, replacing any existing record with the same id.
func (m *Memory) Put(ctx context.Context, record *common.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	m.records[record.ID] = *record
	m.mu.Unlock()

	return nil
}

// Update applies a patch to an existing record. Returns
// common.ErrRecordNotFound if the record is absent.
func (m *Memory) Update(ctx context.Context, id string, patch *common.RecordPatch) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return common.ErrRecordNotFound
	}
	record.Description = patch.Description
	m.records[id] = record

	return nil
}

// Delete removes a record by id. Deleting an absent id is a no-op.
func (m *Memory) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()

	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
