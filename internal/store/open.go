package store

import (
	"context"
	"fmt"
	"strings"
)

// Open selects a backend from the URL scheme:
//
//	memory://                      in-process map (also the empty string)
//	redis:// rediss://             go-redis
//	postgres:// postgresql://      pgx
//	sqlite://path | sqlite://:memory:
func Open(ctx context.Context, url string) (Store, error) {
	scheme, rest, _ := strings.Cut(url, "://")
	switch strings.ToLower(scheme) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis", "rediss":
		return NewRedisStore(url)
	case "postgres", "postgresql":
		return OpenSQL(ctx, "pgx", url)
	case "sqlite":
		return OpenSQL(ctx, "sqlite", sqliteDSN(rest))
	default:
		return nil, fmt.Errorf("unsupported store url scheme %q", scheme)
	}
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
