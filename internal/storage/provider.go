// Package storage selects the blob backend used for record documents and
// checkpoint mirrors.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/tender-acquirer/internal/storage/gcs"
	"github.com/JakeFAU/tender-acquirer/internal/storage/local"
	"github.com/JakeFAU/tender-acquirer/internal/storage/memory"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// Provider names.
const (
	ProviderLocal  = "local"
	ProviderMemory = "memory"
	ProviderGCS    = "gcs"
)

// Config picks a provider and carries its settings.
type Config struct {
	Provider string
	Local    local.Config
	GCS      gcs.Config
}

// Store is a BlobStore that may hold resources.
type Store interface {
	tender.BlobStore
	Close() error
}

type nopCloser struct {
	tender.BlobStore
}

func (nopCloser) Close() error { return nil }

// Open builds the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderLocal:
		s, err := local.New(cfg.Local)
		if err != nil {
			return nil, fmt.Errorf("local blob store: %w", err)
		}
		return nopCloser{s}, nil
	case ProviderMemory, "":
		return nopCloser{memory.NewBlobStore()}, nil
	case ProviderGCS:
		s, err := gcs.Open(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob provider %q", cfg.Provider)
	}
}
