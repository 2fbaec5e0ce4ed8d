package blobstore

import (
	"context"
	"path"
	"strings"
)

type prefixedStore struct {
	inner  BlobStore
	prefix string
}

// Prefixed returns a view of s in which every name is relative to prefix.
// An empty prefix returns s itself.
func Prefixed(s BlobStore, prefix string) BlobStore {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return s
	}
	if p, ok := s.(*prefixedStore); ok {
		return &prefixedStore{inner: p.inner, prefix: path.Join(p.prefix, prefix)}
	}
	return &prefixedStore{inner: s, prefix: prefix}
}

func (p *prefixedStore) key(name string) string {
	return p.prefix + "/" + name
}

func (p *prefixedStore) Open(ctx context.Context, name string) (Blob, error) {
	return p.inner.Open(ctx, p.key(name))
}

func (p *prefixedStore) Put(ctx context.Context, name string, data []byte) error {
	return p.inner.Put(ctx, p.key(name), data)
}

func (p *prefixedStore) Delete(ctx context.Context, name string) error {
	return p.inner.Delete(ctx, p.key(name))
}

func (p *prefixedStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := p.inner.List(ctx, p.key(prefix))
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimPrefix(n, p.prefix+"/"))
	}
	return out, nil
}
