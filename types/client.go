package types

import (
	"context"
)

// Fetcher performs one validated remote read of a resource collection.
// The returned error carries exactly one fault classification from
// errors.go; retry handling happens inside the implementation.
type Fetcher interface {
	Fetch(ctx context.Context, resourcePath string) ([]Record, error)
}

// FetchFunc is the orchestrator-facing form of a remote read bound to a
// specific resource.
type FetchFunc func(ctx context.Context) ([]Record, error)
