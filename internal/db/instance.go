package db

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/madinamutiyeva/SingletonPattern/internal/logging"
)

var (
	instance      atomic.Pointer[Manager]
	instanceGroup singleflight.Group
)

// Instance returns the process-wide Manager, opening it from path on first
// use. Concurrent first callers share a single open attempt.
//
// The first path that opens successfully wins for the life of the process:
// later calls return the existing Manager whatever path they pass, and a
// differing path is only logged. A failed open is not remembered, so the next
// call tries again with its own path.
//
// The shared open runs detached from ctx cancellation, so one caller giving up
// does not fail the others waiting on the same attempt.
//
// Closing the returned Manager does not reset the instance.
func Instance(ctx context.Context, path string, opts ...Option) (*Manager, error) {
	if m := instance.Load(); m != nil {
		warnPathMismatch(ctx, m, path)
		return m, nil
	}

	v, err, _ := instanceGroup.Do("instance", func() (any, error) {
		if m := instance.Load(); m != nil {
			return m, nil
		}

		m, err := OpenFile(context.WithoutCancel(ctx), path, opts...)
		if err != nil {
			return nil, err
		}
		instance.Store(m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	m := v.(*Manager)
	warnPathMismatch(ctx, m, path)
	return m, nil
}

func warnPathMismatch(ctx context.Context, m *Manager, path string) {
	if m.configPath == path {
		return
	}
	logging.New("db").WarnContext(ctx, "database instance already initialized from another config, ignoring requested path",
		"initialized_from", m.configPath, "requested", path)
}
