package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// memoryDB implements Database for tests: a JSON tree addressed by
// slash-separated paths, with push keys that preserve insertion order.
type memoryDB struct {
	mu    sync.Mutex
	root  map[string]any
	pushN int
}

func newMemoryDB() *memoryDB {
	return &memoryDB{root: map[string]any{}}
}

func (m *memoryDB) Get(_ context.Context, path string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node := m.lookup(path)
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *memoryDB) Set(_ context.Context, path string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node any
	if err := json.Unmarshal(data, &node); err != nil {
		return err
	}
	parent, key := m.mkParents(path)
	parent[key] = node
	return nil
}

func (m *memoryDB) Push(ctx context.Context, path string, v any) (string, error) {
	m.mu.Lock()
	m.pushN++
	key := fmt.Sprintf("-M%06d", m.pushN)
	m.mu.Unlock()
	return key, m.Set(ctx, path+"/"+key, v)
}

func (m *memoryDB) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	segs := strings.Split(path, "/")
	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return nil
		}
		node = child
	}
	delete(node, segs[len(segs)-1])
	return nil
}

func (m *memoryDB) lookup(path string) any {
	var node any = m.root
	for _, seg := range strings.Split(path, "/") {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = obj[seg]
		if !ok {
			return nil
		}
	}
	return node
}

func (m *memoryDB) mkParents(path string) (map[string]any, string) {
	segs := strings.Split(path, "/")
	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	return node, segs[len(segs)-1]
}
