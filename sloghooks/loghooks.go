// Package sloghooks reports store.Hooks events through log/slog.
//
// Storage keys look like "<ns>:<key>". The namespace is logged as is; the
// user key is redacted, since it often carries identifiers.
package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/unkn0wn-root/resp/store"
)

type Options struct {
	// Log one event in N; 0 and 1 log all.
	SelfHealEvery    uint64
	SetRejectedEvery uint64
	// Redact replaces the user part of a key. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	heals   atomic.Uint64
	rejects atomic.Uint64
}

var _ store.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	if opts.Redact == nil {
		opts.Redact = hashKey
	}
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) SelfHeal(storageKey, reason string, offset int) {
	if h.l == nil || !sampled(h.opts.SelfHealEvery, &h.heals) {
		return
	}
	attrs := append(h.keyAttrs(storageKey), slog.String("reason", reason))
	if offset >= 0 {
		attrs = append(attrs, slog.Int("offset", offset))
	}
	h.l.LogAttrs(context.Background(), slog.LevelWarn, "resp.store.self_heal", attrs...)
}

func (h *Hooks) SetRejected(storageKey string) {
	if h.l == nil || !sampled(h.opts.SetRejectedEvery, &h.rejects) {
		return
	}
	h.l.LogAttrs(context.Background(), slog.LevelInfo, "resp.store.set_rejected", h.keyAttrs(storageKey)...)
}

func (h *Hooks) keyAttrs(storageKey string) []slog.Attr {
	ns, key, ok := strings.Cut(storageKey, ":")
	if !ok {
		return []slog.Attr{slog.String("key", h.opts.Redact(storageKey))}
	}
	return []slog.Attr{slog.String("ns", ns), slog.String("key", h.opts.Redact(key))}
}

func hashKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sampled(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}
