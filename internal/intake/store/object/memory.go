// Package object holds support-letter storage backends. The Supabase backend
// lives in platform/supabase; this package adds an in-process store for local
// runs and tests.
package object

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"grantintake/pkg/platform/sentinel"
)

// Object is one stored file.
type Object struct {
	ContentType string
	Content     []byte
}

// Memory keeps objects in a map. Uploads overwrite.
type Memory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

// NewMemory returns a store whose public URLs are rooted at baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func key(bucket, name string) string {
	return bucket + "/" + name
}

func (m *Memory) Upload(ctx context.Context, bucket, name string, content io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("read object content: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key(bucket, name)] = Object{ContentType: contentType, Content: data}
	return nil
}

// List returns matching names in lexical order.
func (m *Memory) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for k := range m.objects {
		name, ok := strings.CutPrefix(k, bucket+"/")
		if ok && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) PublicURL(bucket, name string) string {
	return m.baseURL + "/" + bucket + "/" + url.PathEscape(name)
}

// Get returns a stored object.
func (m *Memory) Get(bucket, name string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key(bucket, name)]
	if !ok {
		return Object{}, sentinel.ErrNotFound
	}
	return obj, nil
}

// Len is the number of stored objects across buckets.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
