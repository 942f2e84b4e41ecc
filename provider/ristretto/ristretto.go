package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/resp"
	pr "github.com/unkn0wn-root/resp/provider"
)

var _ pr.Provider = (*Provider)(nil)

var ErrInvalidConfig = errors.New("ristretto provider: NumCounters, MaxCost and BufferItems must be positive")

type Provider struct {
	c    *rc.Cache
	wait bool
}

type Config struct {
	NumCounters int64
	MaxCost     int64 // in the units of store.Options.ComputeSetCost, bytes by default
	BufferItems int64
	Metrics     bool

	// Wait makes Set block until the write is visible to Get. Ristretto
	// buffers writes otherwise.
	Wait bool

	// Logger gets one Debug line per entry the admission policy refuses or
	// evicts. Keys are hashed inside ristretto, so only the cost is known.
	Logger resp.Logger
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, ErrInvalidConfig
	}
	conf := &rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	}
	if cfg.Logger != nil {
		conf.OnReject = itemLogger(cfg.Logger, "ristretto rejected entry")
		conf.OnEvict = itemLogger(cfg.Logger, "ristretto evicted entry")
	}
	c, err := rc.NewCache(conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, wait: cfg.Wait}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// not written through this provider
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set returns ok=false when ristretto drops the write (buffer full or the
// admission policy refused it).
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok := p.c.SetWithTTL(key, value, cost, ttl)
	if ok && p.wait {
		p.c.Wait()
	}
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics is nil unless Config.Metrics was set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

func itemLogger(log resp.Logger, msg string) func(*rc.Item) {
	return func(it *rc.Item) {
		log.Debug(msg, resp.Fields{"cost": it.Cost})
	}
}
