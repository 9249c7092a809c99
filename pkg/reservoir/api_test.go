package reservoir

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/dataio"
	"pyrcn/internal/layer"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger, _ := test.NewNullLogger()
	client, err := New(Options{StoreKind: "memory", Logger: logger})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientFitTransformInspectDelete(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	x, err := dataio.RandomMatrix(1, 12, 6, -1, 1)
	if err != nil {
		t.Fatalf("random input: %v", err)
	}
	cfg := layer.DefaultConfig()
	cfg.NComponents = 20
	cfg.KIn = 3
	cfg.KRec = 4
	cfg.SpectralRadius = 0.9
	summary, err := client.Fit(ctx, FitRequest{Name: " demo ", Config: cfg.WithSeed(5), X: x})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if summary.ID == "" || summary.Name != "demo" || summary.NComponents != 20 || summary.NFeatures != 6 {
		t.Fatalf("unexpected fit summary: %+v", summary)
	}

	y, err := client.Transform(ctx, summary.ID, x)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if r, c := y.Dims(); r != 12 || c != 20 {
		t.Fatalf("unexpected transform dims %dx%d", r, c)
	}

	direct, err := layer.New(cfg.WithSeed(5)).FitTransform(ctx, x)
	if err != nil {
		t.Fatalf("direct fit: %v", err)
	}
	if !mat.EqualApprox(direct, y, 1e-12) {
		t.Fatal("stored layer diverged from a direct fit with the same seed")
	}

	h, err := client.States(ctx, summary.ID, x)
	if err != nil {
		t.Fatalf("states: %v", err)
	}
	if r, c := h.Dims(); r != 12 || c != 20 {
		t.Fatalf("unexpected states dims %dx%d", r, c)
	}

	info, err := client.Inspect(ctx, summary.ID)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Feedforward.RowNNZMax != 3 || info.Recurrent == nil {
		t.Fatalf("unexpected inspect output: %+v", info)
	}

	items, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != summary.ID {
		t.Fatalf("unexpected list: %+v", items)
	}

	if err := client.Delete(ctx, summary.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.Delete(ctx, summary.ID); !errors.Is(err, ErrLayerNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := client.Transform(ctx, summary.ID, x); !errors.Is(err, ErrLayerNotFound) {
		t.Fatalf("expected not found transform, got %v", err)
	}
}

func TestClientFitRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	x, _ := dataio.RandomMatrix(2, 4, 5, -1, 1)

	cfg := layer.DefaultConfig()
	cfg.KIn = 25
	if _, err := client.Fit(ctx, FitRequest{Config: cfg, X: x}); !errors.Is(err, layer.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	items, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected nothing stored, got %+v", items)
	}
}

func TestClientTransformShapeMismatch(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	x, _ := dataio.RandomMatrix(3, 4, 5, -1, 1)
	cfg := layer.DefaultConfig()
	cfg.NComponents = 10
	cfg.KIn = 2
	cfg.KRec = 2
	summary, err := client.Fit(ctx, FitRequest{Config: cfg, X: x})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	other, _ := dataio.RandomMatrix(3, 4, 6, -1, 1)
	if _, err := client.Transform(ctx, summary.ID, other); !errors.Is(err, layer.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}
