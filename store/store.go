// Package store keeps RESP-encoded values in a provider-agnostic byte store.
//
// Keys:
//
//	<ns>:<key>
//
// Values pass through a Codec[V] (codec.RESP[V] unless told otherwise). An
// entry that no longer decodes, because it was truncated, written by a
// foreign client or produced by an older V, is deleted on read and reported
// as a miss.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/unkn0wn-root/resp"
	c "github.com/unkn0wn-root/resp/codec"
	pr "github.com/unkn0wn-root/resp/provider"
)

const defaultTTL = 10 * time.Minute

type SetCostFunc func(key string, raw []byte) int64

// Options tune a Store. Only Namespace and Provider are required.
type Options[V any] struct {
	Namespace string // e.g. "user", "session"
	Provider  pr.Provider

	Codec          c.Codec[V]    // nil => codec.RESP[V]
	Logger         resp.Logger   // nil => NopLogger
	Hooks          Hooks         // nil => NopHooks
	DefaultTTL     time.Duration // 0 => 10m
	Disabled       bool
	ComputeSetCost SetCostFunc // default: len(raw)
}

type Store[V any] struct {
	ns             string
	provider       pr.Provider
	codec          c.Codec[V]
	log            resp.Logger
	hooks          Hooks
	enabled        bool
	defaultTTL     time.Duration
	computeSetCost SetCostFunc
}

func New[V any](opts Options[V]) (*Store[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("store: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("store: namespace is required")
	}

	s := &Store[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		enabled:  !opts.Disabled,
	}
	s.codec = opts.Codec
	if s.codec == nil {
		s.codec = c.RESP[V]{}
	}
	s.log = opts.Logger
	if s.log == nil {
		s.log = resp.NopLogger{}
	}
	s.hooks = opts.Hooks
	if s.hooks == nil {
		s.hooks = NopHooks{}
	}
	s.defaultTTL = opts.DefaultTTL
	if s.defaultTTL == 0 {
		s.defaultTTL = defaultTTL
	}
	s.computeSetCost = opts.ComputeSetCost
	if s.computeSetCost == nil {
		s.computeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	return s, nil
}

func (s *Store[V]) Enabled() bool { return s.enabled }

func (s *Store[V]) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}

// Get returns (v, true, nil) on hit. Undecodable entries are removed and
// reported as a miss; only provider failures surface as errors.
func (s *Store[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if !s.enabled {
		return zero, false, nil
	}
	k := s.key(key)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	v, ok := s.decode(ctx, k, raw)
	return v, ok, nil
}

// decode drops entries that no longer decode and reports them as misses.
func (s *Store[V]) decode(ctx context.Context, k string, raw []byte) (V, bool) {
	v, err := s.codec.Decode(raw)
	if err != nil {
		reason, off := healReason(err)
		_ = s.provider.Del(ctx, k) // self-heal
		s.hooks.SelfHeal(k, reason, off)
		s.log.Debug("dropped undecodable entry", resp.Fields{"key": k, "reason": reason, "offset": off, "err": err})
		var zero V
		return zero, false
	}
	return v, true
}

// Set stores value under key. ttl 0 means the store's DefaultTTL.
func (s *Store[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if !s.enabled {
		return nil
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	raw, err := s.codec.Encode(value)
	if err != nil {
		return err
	}
	k := s.key(key)
	ok, err := s.provider.Set(ctx, k, raw, s.computeSetCost(k, raw), ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.hooks.SetRejected(k)
		s.log.Debug("Set rejected by provider (pressure)", resp.Fields{"key": k})
	}
	return nil
}

func (s *Store[V]) Del(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	return s.provider.Del(ctx, s.key(key))
}

// GetMany returns the hits keyed by user key and the misses in the order of
// keys. Providers implementing provider.MultiGetter are asked once; others
// key by key.
func (s *Store[V]) GetMany(ctx context.Context, keys []string) (map[string]V, []string, error) {
	out := make(map[string]V, len(keys))
	if !s.enabled {
		return out, slices.Clone(keys), nil
	}
	mg, ok := s.provider.(pr.MultiGetter)
	if !ok {
		var missing []string
		for _, k := range keys {
			v, ok, err := s.Get(ctx, k)
			if err != nil {
				return out, nil, err
			}
			if ok {
				out[k] = v
			} else {
				missing = append(missing, k)
			}
		}
		return out, missing, nil
	}

	sks := make([]string, len(keys))
	for i, k := range keys {
		sks[i] = s.key(k)
	}
	raws, found, err := mg.GetMulti(ctx, sks)
	if err != nil {
		return out, nil, err
	}
	var missing []string
	for i, k := range keys {
		if !found[i] {
			missing = append(missing, k)
			continue
		}
		v, ok := s.decode(ctx, sks[i], raws[i])
		if !ok {
			missing = append(missing, k)
			continue
		}
		out[k] = v
	}
	return out, missing, nil
}

func (s *Store[V]) key(userKey string) string {
	return s.ns + ":" + userKey
}

// "corrupt" when the bytes are not well-formed RESP at all, "value_decode"
// when they are but do not fit V.
func healReason(err error) (string, int) {
	off := -1
	var de *resp.DecodeError
	if errors.As(err, &de) {
		off = de.Offset
	}
	for _, e := range []error{resp.ErrTruncated, resp.ErrBadTag, resp.ErrMalformed, resp.ErrBadInteger, resp.ErrTrailingData} {
		if errors.Is(err, e) {
			return "corrupt", off
		}
	}
	return "value_decode", off
}
