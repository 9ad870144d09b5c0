package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spazza/bi-mail-service/internal/config"
)

// File identifies one file in a remote report folder.
type File struct {
	Name string // base filename as written by the upstream exporter
	ID   string // backend download handle (Graph item id or S3 object key)
	Size int64
}

// Store provides access to the remote document store holding report
// exports. Authentication and transport belong to the implementation;
// callers only consume list, download and upload as capabilities.
type Store interface {
	// List returns the files directly under folder.
	List(ctx context.Context, folder string) ([]File, error)

	// Download returns the raw bytes of a file previously returned by List.
	Download(ctx context.Context, f File) ([]byte, error)

	// Upload writes data as folder/name, overwriting any existing file.
	Upload(ctx context.Context, folder, name string, data []byte) error
}

// New creates a Store for the configured provider.
func New(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Provider {
	case "graph":
		return NewGraph(cfg.Graph, cfg.Timeout(), logger), nil
	case "s3":
		return NewS3(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", cfg.Provider)
	}
}
