package collector

import (
	"context"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/httpclient"
)

// HTTPConfig configures the forwarding collector.
type HTTPConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Path    string            `mapstructure:"path"`
	Client  httpclient.Config `mapstructure:",squash"`
}

// HTTP posts each value as JSON to an external service.
type HTTP[T any] struct {
	client *httpclient.Client
	path   string
}

// NewHTTP builds the underlying client from cfg.
func NewHTTP[T any](cfg HTTPConfig) (*HTTP[T], error) {
	client, err := httpclient.New(cfg.Client)
	if err != nil {
		return nil, err
	}
	return &HTTP[T]{client: client, path: cfg.Path}, nil
}

// Name returns "http".
func (c *HTTP[T]) Name() string { return "http" }

// Collect posts v. Non-2xx responses are errors.
func (c *HTTP[T]) Collect(ctx context.Context, v T) error {
	if _, err := c.client.PostJSON(ctx, c.path, v); err != nil {
		return apperrors.SinkFailure(c.Name(), err)
	}
	return nil
}
