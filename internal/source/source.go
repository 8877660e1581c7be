// Package source reads citizen comments for a bill from the configured
// comment repository: a JSON-lines export, an HTTP API, or the local store.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/argintel/internal/cache"
	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/store"
)

// ErrUnknownKind is returned for an unsupported source kind
var ErrUnknownKind = errors.New("unknown comment source")

// CommentSource supplies the comments of a bill
type CommentSource interface {
	Comments(ctx context.Context, billID string) ([]model.Comment, error)
}

// New builds the source selected by cfg.Kind. The store is only required
// for kind "store" and the cache only used by kind "http".
func New(cfg model.SourceConfig, st *store.Store, c cache.Cache, logger logging.Logger) (CommentSource, error) {
	switch cfg.Kind {
	case "store", "":
		if st == nil {
			return nil, errors.New("store source requires a database")
		}
		return NewStoreSource(st), nil
	case "file":
		if cfg.Path == "" {
			return nil, errors.New("file source requires source.path")
		}
		return NewFileSource(cfg.Path), nil
	case "http":
		return NewHTTPSource(cfg, c, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, cfg.Kind)
	}
}

// StoreSource reads the unprocessed comments held in the local store
type StoreSource struct {
	store *store.Store
}

// NewStoreSource creates a store-backed source
func NewStoreSource(st *store.Store) *StoreSource {
	return &StoreSource{store: st}
}

// Comments returns the bill's comments not yet processed
func (s *StoreSource) Comments(ctx context.Context, billID string) ([]model.Comment, error) {
	return s.store.UnprocessedComments(ctx, billID)
}
