package cart

import "context"

// KV is the string-keyed storage a cart partition persists to. Get reports
// absence through ok rather than an error so callers can tell "no cart yet"
// apart from a failing backend.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// PrefixKV namespaces every key of an underlying KV. A shared backend such
// as Redis holds carts for many visitors, while each Store keeps using the
// well-known partition keys as if it owned the whole keyspace.
type PrefixKV struct {
	inner  KV
	prefix string
}

func NewPrefixKV(inner KV, prefix string) *PrefixKV {
	return &PrefixKV{inner: inner, prefix: prefix}
}

func (p *PrefixKV) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *PrefixKV) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *PrefixKV) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}
