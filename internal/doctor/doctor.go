// Package doctor diagnoses a jt installation: configuration, auth
// material, server reachability, and the local cache database.
package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/config"
	"github.com/raphi011/jt/internal/jira"
	"github.com/raphi011/jt/internal/storage"
)

// Check is one diagnostic. Run returns a short success detail ("ok",
// "reachable as Dana") or an error describing what to fix.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

// Result is one executed check.
type Result struct {
	Name   string
	Detail string
	Err    error
}

// Checks builds the standard jt diagnostics for cfg.
func Checks(cfg *config.Config) []Check {
	return []Check{
		{Name: "config", Run: func(context.Context) (string, error) {
			if err := cfg.RequireURL(); err != nil {
				return "", err
			}
			return cfg.URL, nil
		}},
		{Name: "auth", Run: func(context.Context) (string, error) {
			return checkAuth(cfg)
		}},
		{Name: "server", Run: func(ctx context.Context) (string, error) {
			if err := cfg.RequireURL(); err != nil {
				return "", errors.New("skipped: no server url")
			}
			client := jira.NewClient(jira.Config{
				BaseURL:  cfg.URL,
				Email:    cfg.Email,
				User:     cfg.User,
				APIToken: cfg.APIToken,
				Password: cfg.Password,
			})
			name, err := client.Myself(ctx)
			if err != nil {
				return "", err
			}
			return "authenticated as " + name, nil
		}},
		{Name: "cache", Run: func(context.Context) (string, error) {
			if !cfg.Cache {
				return "disabled", nil
			}
			path, err := storage.CacheDBPath()
			if err != nil {
				return "", fmt.Errorf("resolving cache path: %w", err)
			}
			s, err := cache.OpenSQLite(path)
			if err != nil {
				return "", err
			}
			defer s.Close()
			return path, nil
		}},
	}
}

func checkAuth(cfg *config.Config) (string, error) {
	if cfg.IsCloud() {
		switch {
		case cfg.Email == "":
			return "", errors.New("cloud server needs email in the config file")
		case cfg.APIToken == "":
			return "", errors.New("cloud server needs JT_API_TOKEN set")
		default:
			return "email + api token", nil
		}
	}
	switch {
	case cfg.APIToken != "":
		return "personal access token", nil
	case cfg.User != "" && cfg.Password != "":
		return "user + password", nil
	default:
		return "", errors.New("set JT_API_TOKEN (PAT), or user in the config file and JT_PASSWORD")
	}
}

// RunAll executes every check, never stopping early: a dead server
// should not hide a broken cache.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		detail, err := c.Run(ctx)
		results = append(results, Result{Name: c.Name, Detail: detail, Err: err})
	}
	return results
}
