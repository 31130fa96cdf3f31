package db

import (
	"context"
	"fmt"
	"reflect"
)

func (s *MemoryStore) Create(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := documentPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := lookup(s.root, p.Segments()); ok {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	return writeTree(s.root, path, value)
}

func (s *MemoryStore) AddToSet(ctx context.Context, path string, value any) (bool, error) {
	return s.updateList(ctx, path, value, func(list []any, v any) ([]any, bool) {
		for _, el := range list {
			if reflect.DeepEqual(el, v) {
				return list, false
			}
		}
		return append(list, v), true
	})
}

func (s *MemoryStore) Pull(ctx context.Context, path string, value any) (bool, error) {
	return s.updateList(ctx, path, value, func(list []any, v any) ([]any, bool) {
		kept := list[:0]
		for _, el := range list {
			if !reflect.DeepEqual(el, v) {
				kept = append(kept, el)
			}
		}
		return kept, len(kept) != len(list)
	})
}

func (s *MemoryStore) Append(ctx context.Context, path string, value any, keepLast int) error {
	_, err := s.updateList(ctx, path, value, func(list []any, v any) ([]any, bool) {
		list = append(list, v)
		if keepLast > 0 && len(list) > keepLast {
			list = list[len(list)-keepLast:]
		}
		return list, true
	})
	return err
}

func (s *MemoryStore) UpdateListItem(ctx context.Context, path string, item ListItem, field string, value any) (bool, error) {
	match, err := normalize(item.Value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	found := false
	_, err = s.updateList(ctx, path, value, func(list []any, v any) ([]any, bool) {
		for _, el := range list {
			obj, ok := el.(map[string]any)
			if !ok || !reflect.DeepEqual(obj[item.Key], match) {
				continue
			}
			found = true
			obj[field] = v
			return list, true
		}
		return list, false
	})
	return found, err
}

// updateList applies fn to the list stored at path under the store lock.
// An absent path is an empty list; a list left empty is removed.
func (s *MemoryStore) updateList(ctx context.Context, path string, value any, fn func(list []any, v any) ([]any, bool)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := listPath(path)
	if err != nil {
		return false, err
	}
	v, err := normalize(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var list []any
	if node, ok := lookup(s.root, p.Segments()); ok && node != nil {
		list, ok = node.([]any)
		if !ok {
			return false, fmt.Errorf("%w: %s: not a list", ErrDecode, path)
		}
		list = deepCopy(list).([]any)
	}

	list, changed := fn(list, v)
	if !changed {
		return false, nil
	}
	if len(list) == 0 {
		removeNode(s.root, p.Segments())
		return true, nil
	}
	return true, writeTree(s.root, path, list)
}

func lookup(root map[string]any, segs []string) (any, bool) {
	var node any = root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return node, true
}
