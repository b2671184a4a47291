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

// Package memory provides an in-memory object fetcher for testing and
// development.
package memory

import (
	"context"
	"sync"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// Memory is an object fetcher backed by a map of bucket/key to payload.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new Memory object fetcher.
func New() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
	}
}

// Configure sets up the backend with the necessary settings.
// The memory backend has no required settings.
func (m *Memory) Configure(settings map[string]string) error {
	return nil
}

// Fetch retrieves the payload stored for bucket/key.
func (m *Memory) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	data, ok := m.objects[bucket+"/"+key]
	m.mu.RUnlock()

	if !ok {
		return nil, common.ErrObjectNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Store seeds an object payload. Test helper; not part of the fetcher port.
func (m *Memory) Store(bucket, key string, data []byte) {
	m.mu.Lock()
	m.objects[bucket+"/"+key] = data
	m.mu.Unlock()
}
