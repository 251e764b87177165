package main

import (
	"context"
	"time"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/config"
	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/jira"
	"github.com/raphi011/jt/internal/log"
	"github.com/raphi011/jt/internal/storage"
)

// newDirectory wires config, network client, and cache layer together.
// The returned close func releases the cache database; it is safe to
// call when the cache is disabled.
func newDirectory(ctx context.Context) (*jira.CachedClient, func() error, error) {
	if err := cfg.RequireURL(); err != nil {
		return nil, nil, err
	}

	client := jira.NewClient(jira.Config{
		BaseURL:   cfg.URL,
		Email:     cfg.Email,
		User:      cfg.User,
		APIToken:  cfg.APIToken,
		Password:  cfg.Password,
		EpicField: cfg.EpicField,
	})

	store, closeStore, err := openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	layer := cache.NewLayer(store, cache.WithStaleTime(staleTime()))
	return jira.NewCachedClient(client, layer, store), closeStore, nil
}

// openStorage opens the cache database, or a no-op store when caching
// is off. A cache that fails to open only costs offline support, so it
// degrades with a log line instead of failing the command.
func openStorage(ctx context.Context) (cache.Storage, func() error, error) {
	noop := func() error { return nil }

	if noCache || !cfg.Cache {
		return cache.Noop{}, noop, nil
	}

	path, err := storage.CacheDBPath()
	if err != nil {
		return nil, nil, err
	}
	s, err := cache.OpenSQLite(path)
	if err != nil {
		log.FromContext(ctx).Debug("cache disabled", "path", path, "err", err)
		return cache.Noop{}, noop, nil
	}
	return s, s.Close, nil
}

func staleTime() time.Duration {
	if cfg.StaleTime.Std() > 0 {
		return cfg.StaleTime.Std()
	}
	return config.DefaultStaleTime
}

// provenanceNote describes where served data came from, for stderr
// footers under table output.
func provenanceNote(src cache.Source, cachedAt time.Time) string {
	switch src {
	case cache.SourceNetwork:
		return "live"
	case cache.SourceOffline:
		return "offline — cached " + format.RelativeTime(cachedAt)
	default:
		return "cached " + format.RelativeTime(cachedAt)
	}
}

// defaultJQL is the issue filter used when none is given on the
// command line.
func defaultJQL() string {
	if cfg.JQL != "" {
		return cfg.JQL
	}
	if cfg.Project != "" {
		return "project = " + cfg.Project + " ORDER BY updated DESC"
	}
	return "assignee = currentUser() ORDER BY updated DESC"
}
