package config

import "context"

// Loader is the interface for a format-specific configuration loader. It
// reads a mesh application definition from a path and translates it into
// the format-agnostic model.
type Loader interface {
	Load(ctx context.Context, path string) (*Model, error)
}
