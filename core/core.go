// Package core wires the registry, dictionary store and catalog client
// together.
//
// Startup is explicit and two-phase: Start builds every component and
// subscribes the store to the registry; the caller then publishes the
// result through a Gate so extensions that load earlier can wait for it.
//
//	c, err := core.Start(ctx, cfg, core.Options{Gate: gate})
//	...
//	tr := c.RegisterExtension(ctx, "demo", "en", base)
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/minios-linux/polyglot/cloud"
	"github.com/minios-linux/polyglot/config"
	"github.com/minios-linux/polyglot/dictionary"
	"github.com/minios-linux/polyglot/registry"
	"github.com/minios-linux/polyglot/storage"
	"github.com/minios-linux/polyglot/store"
	"github.com/minios-linux/polyglot/translator"
)

// Options configures Start.
type Options struct {
	Logger *slog.Logger
	// Storage replaces the bucket opened from cfg.Root. It is not closed
	// by Close.
	Storage storage.Storage
	// HTTPClient replaces the catalog client's default client.
	HTTPClient *http.Client
	// Gate, when set, is published once startup succeeds.
	Gate *Gate
}

// Core owns the running components.
type Core struct {
	Config   config.Config
	Registry *registry.Registry
	Store    *store.Store
	Cloud    *cloud.Client
	Storage  storage.Storage

	logger *slog.Logger
	bucket *storage.Bucket // opened by Start; nil when supplied

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Start builds the core from cfg. When cfg.RefreshInterval is positive
// the catalog is fetched immediately and then on every tick until Close.
func Start(ctx context.Context, cfg config.Config, opts Options) (*Core, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Core{Config: cfg, logger: logger}

	st := opts.Storage
	if st == nil {
		b, err := storage.Open(ctx, cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		c.bucket = b
		st = b
	}
	c.Storage = st

	c.Registry = registry.New(logger)
	c.Store = store.New(st, c.Registry, store.Options{
		Logger:          logger,
		PreferredLocale: cfg.Locale,
	})

	var rewrites []cloud.Rewrite
	if cfg.MirrorFrom != "" {
		rewrites = append(rewrites, cloud.Rewrite{From: cfg.MirrorFrom, To: cfg.MirrorTo})
	}
	c.Cloud = cloud.New(cloud.Options{
		ManifestURL: cfg.ManifestURL,
		Rewrites:    rewrites,
		Timeout:     cfg.Timeout,
		Proxy:       cfg.Proxy,
		HTTPClient:  opts.HTTPClient,
		Logger:      logger,
	})

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	if cfg.RefreshInterval > 0 && cfg.ManifestURL != "" {
		c.wg.Add(1)
		go c.refreshLoop(loopCtx, cfg.RefreshInterval)
	}

	if opts.Gate != nil {
		opts.Gate.Publish(c)
	}
	logger.Debug("core started", "root", cfg.Root, "manifest", cfg.ManifestURL)
	return c, nil
}

// RegisterExtension builds a translator for an extension and registers
// it. Stored overlays are loaded into it before this returns.
func (c *Core) RegisterExtension(ctx context.Context, id, baseLocale string, base dictionary.Dictionary) *translator.Translator {
	t := translator.New(id, baseLocale, base, translator.Options{
		Logger: c.logger,
		OnError: func(locale string, res dictionary.ValidationResult) {
			c.logger.Warn("dictionary rejected", "namespace", id, "locale", locale, "result", res.Summary())
		},
	})
	c.Registry.Register(ctx, id, t)
	return t
}

// RefreshCatalog forces a manifest fetch and returns the new catalog.
func (c *Core) RefreshCatalog(ctx context.Context) []cloud.RemoteDictionary {
	return c.Cloud.FetchManifest(ctx, true)
}

func (c *Core) refreshLoop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Cloud.FetchManifest(ctx, false)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cloud.FetchManifest(ctx, false)
		}
	}
}

// Close stops the refresh loop, tears down the registry and closes the
// storage opened by Start. It is safe to call more than once.
func (c *Core) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		c.wg.Wait()
		c.Store.Close()
		c.Registry.Reset()
		if c.bucket != nil {
			err = c.bucket.Close()
		}
	})
	return err
}
