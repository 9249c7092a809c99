package storage

import (
	"context"

	"pyrcn/internal/model"
)

// Store persists fitted reservoir layers.
type Store interface {
	Init(ctx context.Context) error
	SaveLayer(ctx context.Context, record model.LayerRecord) error
	GetLayer(ctx context.Context, id string) (model.LayerRecord, bool, error)
	ListLayers(ctx context.Context) ([]model.LayerSummary, error)
	DeleteLayer(ctx context.Context, id string) (bool, error)
}
