package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the document tree in process. Values are normalised
// through JSON on the way in, so a read decodes exactly what a client of
// a remote store would see. Used by tests and DOC_STORE=memory.
type MemoryStore struct {
	mu   sync.Mutex
	root map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: map[string]any{}}
}

func (s *MemoryStore) Read(ctx context.Context, path string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readTree(s.root, path, out)
}

func (s *MemoryStore) Write(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeTree(s.root, path, value)
}

// RunTransaction runs fn against a private copy of the tree and swaps it
// in only when fn returns nil. The store lock is held throughout, so
// transactions are serialised.
func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(tx Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTxn{root: deepCopy(s.root).(map[string]any)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.root = tx.root
	return nil
}

type memoryTxn struct {
	root map[string]any
}

func (t *memoryTxn) Read(path string, out any) (bool, error) {
	return readTree(t.root, path, out)
}

func (t *memoryTxn) Write(path string, value any) error {
	return writeTree(t.root, path, value)
}

func readTree(root map[string]any, path string, out any) (bool, error) {
	p, err := ParsePath(path)
	if err != nil {
		return false, err
	}

	node, ok := lookup(root, p.Segments())
	if !ok || node == nil {
		return false, nil
	}

	data, err := json.Marshal(node)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return true, nil
}

func writeTree(root map[string]any, path string, value any) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	if p.Document == "" {
		return fmt.Errorf("%w: %s: collection-level writes are not supported", ErrInvalidPath, path)
	}

	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}

	segs := p.Segments()
	if normalized == nil {
		removeNode(root, segs)
		return nil
	}

	node := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = normalized
	return nil
}

// removeNode deletes the leaf at segs and prunes parents left empty.
func removeNode(node map[string]any, segs []string) bool {
	if len(segs) == 1 {
		delete(node, segs[0])
		return len(node) == 0
	}
	child, ok := node[segs[0]].(map[string]any)
	if !ok {
		return false
	}
	if removeNode(child, segs[1:]) {
		delete(node, segs[0])
	}
	return len(node) == 0
}

func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, child := range t {
			m[k] = deepCopy(child)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, child := range t {
			s[i] = deepCopy(child)
		}
		return s
	default:
		return v
	}
}
