/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package repository

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process repository. It backs single-node deployments and
// serves as the fallback when Redis is unreachable.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs map[string]map[int]chan []byte
	next int
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string][]byte),
		subs: make(map[string]map[int]chan []byte),
	}
}

func (m *Memory) Retrieve(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Persist(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = encoded
	m.mu.Unlock()
	return nil
}

func (m *Memory) Publish(ctx context.Context, topic string, message any) error {
	encoded, err := json.Marshal(message)
	if err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs[topic] {
		select {
		case ch <- encoded:
		default:
			// slow subscriber, drop rather than block the scheduler
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, topic string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 16)
	m.mu.Lock()
	if m.subs[topic] == nil {
		m.subs[topic] = make(map[int]chan []byte)
	}
	id := m.next
	m.next++
	m.subs[topic][id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subs[topic][id]; ok {
			delete(m.subs[topic], id)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel, nil
}

func (m *Memory) Close() error { return nil }
