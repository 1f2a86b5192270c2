package db

import (
	"context"
	"fmt"
)

type Connector interface {
	Connect(ctx context.Context) (*Manager, error)
}

// FileConnector opens a new Manager on every call.
type FileConnector struct {
	ConfigPath string
	Options    []Option
}

func (c *FileConnector) Connect(ctx context.Context) (*Manager, error) {
	m, err := OpenFile(ctx, c.ConfigPath, c.Options...)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	return m, nil
}

// SingletonConnector hands out the process-wide Manager.
type SingletonConnector struct {
	ConfigPath string
	Options    []Option
}

func (c *SingletonConnector) Connect(ctx context.Context) (*Manager, error) {
	m, err := Instance(ctx, c.ConfigPath, c.Options...)
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return m, nil
}
