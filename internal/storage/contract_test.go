package storage

import (
	"context"
	"testing"

	"pyrcn/internal/model"
)

func sampleRecord(id, createdAt string) model.LayerRecord {
	seed := int64(7)
	return model.LayerRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Name:            "layer " + id,
		CreatedAtUTC:    createdAt,
		Config: model.LayerConfig{
			NComponents:    3,
			InputScaling:   1,
			KIn:            1,
			BiasScaling:    1,
			Activation:     "tanh",
			SpectralRadius: 0.9,
			KRec:           -1,
			RandomSeed:     &seed,
		},
		NFeatures: 2,
		Feedforward: model.MatrixRecord{
			Format:  model.FormatCSR,
			Rows:    3,
			Cols:    2,
			Indptr:  []int{0, 1, 2, 3},
			Indices: []int{0, 1, 1},
			Data:    []float64{0.5, -0.25, 0.75},
		},
		Recurrent: &model.MatrixRecord{
			Format: model.FormatDense,
			Rows:   3,
			Cols:   3,
			Data:   []float64{0, 0.1, 0.2, 0.3, 0, 0.4, 0.5, 0.6, 0},
		},
		Bias:     []float64{0.1, -0.2, 0.3},
		Spectral: model.SpectralSummary{Target: 0.9, Estimate: 0.8, Scale: 1.125, Attempts: 1, Converged: true, Normalized: true},
	}
}

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	first := sampleRecord("l1", "2026-01-02T00:00:00Z")
	second := sampleRecord("l0", "2026-01-03T00:00:00Z")
	if err := store.SaveLayer(ctx, second); err != nil {
		t.Fatalf("save layer: %v", err)
	}
	if err := store.SaveLayer(ctx, first); err != nil {
		t.Fatalf("save layer: %v", err)
	}

	loaded, ok, err := store.GetLayer(ctx, "l1")
	if err != nil {
		t.Fatalf("get layer: %v", err)
	}
	if !ok {
		t.Fatal("expected stored layer l1")
	}
	if loaded.NFeatures != 2 || loaded.Config.NComponents != 3 || loaded.Recurrent == nil {
		t.Fatalf("unexpected layer loaded: %+v", loaded)
	}
	if loaded.Feedforward.Indices[2] != 1 || loaded.Bias[1] != -0.2 {
		t.Fatalf("unexpected matrix payload: %+v", loaded.Feedforward)
	}
	if loaded.Config.RandomSeed == nil || *loaded.Config.RandomSeed != 7 {
		t.Fatalf("unexpected seed: %v", loaded.Config.RandomSeed)
	}

	summaries, err := store.ListLayers(ctx)
	if err != nil {
		t.Fatalf("list layers: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != "l1" || summaries[1].ID != "l0" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	renamed := first
	renamed.Name = "renamed"
	if err := store.SaveLayer(ctx, renamed); err != nil {
		t.Fatalf("overwrite layer: %v", err)
	}
	loaded, _, err = store.GetLayer(ctx, "l1")
	if err != nil || loaded.Name != "renamed" {
		t.Fatalf("expected overwritten layer, got %+v (%v)", loaded, err)
	}

	deleted, err := store.DeleteLayer(ctx, "l1")
	if err != nil || !deleted {
		t.Fatalf("delete layer: deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.DeleteLayer(ctx, "l1")
	if err != nil || deleted {
		t.Fatalf("second delete: deleted=%v err=%v", deleted, err)
	}
	if _, ok, err := store.GetLayer(ctx, "l1"); err != nil || ok {
		t.Fatalf("expected missing layer, ok=%v err=%v", ok, err)
	}

	invalid := sampleRecord("", "2026-01-04T00:00:00Z")
	if err := store.SaveLayer(ctx, invalid); err == nil {
		t.Fatal("expected error saving record without id")
	}
}
