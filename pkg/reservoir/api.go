// Package reservoir is the public entry point for fitting, storing and
// applying random reservoir projection layers.
package reservoir

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/layer"
	"pyrcn/internal/model"
	"pyrcn/internal/stats"
	"pyrcn/internal/storage"
)

const defaultDBPath = "reservoir.db"

var ErrLayerNotFound = errors.New("layer not found")

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *logrus.Logger
}

type Client struct {
	store  storage.Store
	logger *logrus.Logger
}

type FitRequest struct {
	Name   string
	Config layer.Config
	X      mat.Matrix
}

type FitSummary struct {
	ID          string
	Name        string
	NComponents int
	NFeatures   int
	Spectral    layer.SpectralInfo
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Fit fits a new layer on req.X and stores it under a fresh id.
func (c *Client) Fit(ctx context.Context, req FitRequest) (FitSummary, error) {
	l, err := layer.New(req.Config, layer.WithLogger(c.logger)).Fit(ctx, req.X)
	if err != nil {
		return FitSummary{}, err
	}
	id := uuid.NewString()
	record, err := l.Record(id, strings.TrimSpace(req.Name))
	if err != nil {
		return FitSummary{}, err
	}
	if err := c.store.SaveLayer(ctx, record); err != nil {
		return FitSummary{}, fmt.Errorf("save layer %s: %w", id, err)
	}
	st, err := l.State()
	if err != nil {
		return FitSummary{}, err
	}
	c.logger.WithFields(logrus.Fields{
		"layer_id":     id,
		"n_components": st.NComponents(),
		"n_features":   st.NFeatures(),
	}).Info("layer stored")
	return FitSummary{
		ID:          id,
		Name:        record.Name,
		NComponents: st.NComponents(),
		NFeatures:   st.NFeatures(),
		Spectral:    st.Spectral(),
	}, nil
}

// Load rebuilds a stored layer.
func (c *Client) Load(ctx context.Context, id string) (*layer.Layer, error) {
	record, err := c.record(ctx, id)
	if err != nil {
		return nil, err
	}
	return layer.FromRecord(record, layer.WithLogger(c.logger))
}

func (c *Client) Transform(ctx context.Context, id string, x mat.Matrix) (mat.Matrix, error) {
	l, err := c.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.Transform(x)
}

func (c *Client) States(ctx context.Context, id string, x mat.Matrix) (*mat.Dense, error) {
	l, err := c.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.States(x)
}

func (c *Client) Inspect(ctx context.Context, id string) (stats.LayerStats, error) {
	l, err := c.Load(ctx, id)
	if err != nil {
		return stats.LayerStats{}, err
	}
	st, err := l.State()
	if err != nil {
		return stats.LayerStats{}, err
	}
	return stats.Describe(st), nil
}

func (c *Client) List(ctx context.Context) ([]model.LayerSummary, error) {
	return c.store.ListLayers(ctx)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	ok, err := c.store.DeleteLayer(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return nil
}

func (c *Client) record(ctx context.Context, id string) (model.LayerRecord, error) {
	if strings.TrimSpace(id) == "" {
		return model.LayerRecord{}, errors.New("layer id is required")
	}
	record, ok, err := c.store.GetLayer(ctx, id)
	if err != nil {
		return model.LayerRecord{}, err
	}
	if !ok {
		return model.LayerRecord{}, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return record, nil
}
