package stats

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/dataio"
	"pyrcn/internal/layer"
	"pyrcn/internal/sparse"
)

func fittedState(t *testing.T) *layer.State {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := layer.DefaultConfig()
	cfg.NComponents = 16
	cfg.KIn = 3
	cfg.KRec = 4
	cfg.SpectralRadius = 0.8
	x, err := dataio.RandomMatrix(1, 5, 6, -1, 1)
	if err != nil {
		t.Fatalf("random input: %v", err)
	}
	l, err := layer.New(cfg.WithSeed(3), layer.WithLogger(logger)).Fit(context.Background(), x)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	st, err := l.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	return st
}

func TestDescribeFittedLayer(t *testing.T) {
	s := Describe(fittedState(t))
	if s.NComponents != 16 || s.NFeatures != 6 {
		t.Fatalf("unexpected shape: %+v", s)
	}
	if s.Feedforward.Format != "csr" || s.Feedforward.NNZ != 48 {
		t.Fatalf("unexpected feedforward stats: %+v", s.Feedforward)
	}
	if s.Feedforward.RowNNZMin != 3 || s.Feedforward.RowNNZMax != 3 {
		t.Fatalf("unexpected fan-in: %+v", s.Feedforward)
	}
	if s.Feedforward.Values.Min < -1 || s.Feedforward.Values.Max >= 1 {
		t.Fatalf("feedforward values outside [-1,1): %+v", s.Feedforward.Values)
	}
	if s.Recurrent == nil || s.Recurrent.NNZ != 64 {
		t.Fatalf("unexpected recurrent stats: %+v", s.Recurrent)
	}
	if s.MeasuredRadius == nil || math.Abs(*s.MeasuredRadius-0.8) > 1e-6 {
		t.Fatalf("unexpected measured radius: %v", s.MeasuredRadius)
	}
	if !s.Spectral.Normalized {
		t.Fatalf("expected normalized spectral summary: %+v", s.Spectral)
	}
}

func TestDescribeMatrixDense(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{0, 1, 2, 0, 0, 4})
	s := DescribeMatrix(m)
	if s.Format != "dense" || s.NNZ != 6 || s.Bytes != 48 {
		t.Fatalf("unexpected dense stats: %+v", s)
	}
	if s.RowNNZMin != 1 || s.RowNNZMax != 2 {
		t.Fatalf("unexpected row counts: %+v", s)
	}
	if s.Values.Min != 0 || s.Values.Max != 4 {
		t.Fatalf("unexpected value range: %+v", s.Values)
	}

	csr := sparse.FromDense(m)
	cs := DescribeMatrix(csr)
	if cs.NNZ != 3 || math.Abs(cs.Density-0.5) > 1e-12 {
		t.Fatalf("unexpected csr stats: %+v", cs)
	}
}

func TestWriteReadLayerStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stats.json")
	want := Describe(fittedState(t))
	if err := WriteLayerStats(path, want); err != nil {
		t.Fatalf("write stats: %v", err)
	}
	got, ok, err := ReadLayerStats(path)
	if err != nil || !ok {
		t.Fatalf("read stats: ok=%v err=%v", ok, err)
	}
	if got.Feedforward.NNZ != want.Feedforward.NNZ || got.Spectral.Attempts != want.Spectral.Attempts {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, ok, err := ReadLayerStats(filepath.Join(t.TempDir(), "missing.json")); ok || err != nil {
		t.Fatalf("expected missing stats, ok=%v err=%v", ok, err)
	}
}
