package bigcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/resp"
	pr "github.com/unkn0wn-root/resp/provider"
)

var _ pr.Provider = (*Provider)(nil)

type Provider struct {
	c *bc.BigCache
}

type Config struct {
	LifeWindow         time.Duration // TTL for every entry; per-call ttl is ignored
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // 0 = unlimited

	// Logger receives bigcache's own diagnostics and one Debug line per
	// expired or evicted entry.
	Logger resp.Logger
	// OnEvict is called with "expired" or "no_space" when an entry leaves the
	// cache for a reason other than Del.
	OnEvict func(key, reason string)
}

func New(cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	if cfg.Logger != nil {
		conf.Verbose = true
		conf.Logger = printfLogger{cfg.Logger}
	}
	if cfg.Logger != nil || cfg.OnEvict != nil {
		conf.OnRemoveWithReason = onRemove(cfg.Logger, cfg.OnEvict)
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	if err := p.c.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}

// Stats exposes bigcache's hit and miss counters.
func (p *Provider) Stats() bc.Stats { return p.c.Stats() }

func onRemove(log resp.Logger, onEvict func(key, reason string)) func(string, []byte, bc.RemoveReason) {
	if log == nil {
		log = resp.NopLogger{}
	}
	return func(key string, _ []byte, reason bc.RemoveReason) {
		r := removeReason(reason)
		if r == "" {
			return
		}
		log.Debug("bigcache dropped entry", resp.Fields{"key": key, "reason": r})
		if onEvict != nil {
			onEvict(key, r)
		}
	}
}

// "" for explicit deletes, which the store already knows about.
func removeReason(r bc.RemoveReason) string {
	switch r {
	case bc.Expired:
		return "expired"
	case bc.NoSpace:
		return "no_space"
	}
	return ""
}

type printfLogger struct{ l resp.Logger }

func (p printfLogger) Printf(format string, v ...any) {
	p.l.Debug(fmt.Sprintf(format, v...), nil)
}
