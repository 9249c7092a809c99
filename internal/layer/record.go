package layer

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/activation"
	"pyrcn/internal/model"
	"pyrcn/internal/sparse"
	"pyrcn/internal/storage"
)

// Record converts the fitted state into its persisted form.
func (l *Layer) Record(id, name string) (model.LayerRecord, error) {
	st, err := l.State()
	if err != nil {
		return model.LayerRecord{}, fmt.Errorf("record: %w", err)
	}
	rec := model.LayerRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           id,
		Name:         name,
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Config:       toModelConfig(st.cfg),
		NFeatures:    st.nFeatures,
		Feedforward:  encodeMatrix(st.feedforward),
		Bias:         st.Bias(),
		Spectral: model.SpectralSummary{
			Target:     st.spectral.Target,
			Estimate:   st.spectral.Estimate,
			Scale:      st.spectral.Scale,
			Attempts:   st.spectral.Attempts,
			Converged:  st.spectral.Converged,
			Normalized: st.spectral.Normalized,
		},
	}
	if st.recurrent != nil {
		r := encodeMatrix(st.recurrent)
		rec.Recurrent = &r
	}
	return rec, nil
}

// FromRecord rebuilds a fitted layer from a persisted record. Shapes are
// checked against the recorded configuration.
func FromRecord(rec model.LayerRecord, opts ...Option) (*Layer, error) {
	cfg := fromModelConfig(rec.Config)
	if err := cfg.Validate(rec.NFeatures); err != nil {
		return nil, fmt.Errorf("load layer %q: %w", rec.ID, err)
	}
	act, err := activation.Get(cfg.Activation)
	if err != nil {
		return nil, fmt.Errorf("load layer %q: %w", rec.ID, err)
	}
	ff, err := decodeMatrix(rec.Feedforward)
	if err != nil {
		return nil, fmt.Errorf("load layer %q: feedforward: %w", rec.ID, err)
	}
	var recurrent mat.Matrix
	if rec.Recurrent != nil {
		if recurrent, err = decodeMatrix(*rec.Recurrent); err != nil {
			return nil, fmt.Errorf("load layer %q: recurrent: %w", rec.ID, err)
		}
	}
	st, err := newState(cfg, rec.NFeatures, ff, recurrent, append([]float64(nil), rec.Bias...), act, SpectralInfo{
		Target:     rec.Spectral.Target,
		Estimate:   rec.Spectral.Estimate,
		Scale:      rec.Spectral.Scale,
		Attempts:   rec.Spectral.Attempts,
		Converged:  rec.Spectral.Converged,
		Normalized: rec.Spectral.Normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("load layer %q: %w", rec.ID, err)
	}
	l := New(cfg, opts...)
	l.state = st
	return l, nil
}

func toModelConfig(c Config) model.LayerConfig {
	return model.LayerConfig{
		NComponents:    c.NComponents,
		DenseOutput:    c.DenseOutput,
		InputScaling:   c.InputScaling,
		KIn:            c.KIn,
		BiasScaling:    c.BiasScaling,
		Activation:     c.Activation,
		SpectralRadius: c.SpectralRadius,
		KRec:           c.KRec,
		BiDirectional:  c.BiDirectional,
		RandomSeed:     c.RandomSeed,
	}
}

func fromModelConfig(c model.LayerConfig) Config {
	return Config{
		NComponents:    c.NComponents,
		DenseOutput:    c.DenseOutput,
		InputScaling:   c.InputScaling,
		KIn:            c.KIn,
		BiasScaling:    c.BiasScaling,
		Activation:     c.Activation,
		SpectralRadius: c.SpectralRadius,
		KRec:           c.KRec,
		BiDirectional:  c.BiDirectional,
		RandomSeed:     c.RandomSeed,
	}
}

func encodeMatrix(m mat.Matrix) model.MatrixRecord {
	rows, cols := m.Dims()
	if csr, ok := m.(*sparse.CSR); ok {
		indptr, indices, data := csr.Raw()
		return model.MatrixRecord{
			Format:  model.FormatCSR,
			Rows:    rows,
			Cols:    cols,
			Data:    data,
			Indptr:  indptr,
			Indices: indices,
		}
	}
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return model.MatrixRecord{Format: model.FormatDense, Rows: rows, Cols: cols, Data: data}
}

func decodeMatrix(r model.MatrixRecord) (mat.Matrix, error) {
	if r.Rows <= 0 || r.Cols <= 0 {
		return nil, fmt.Errorf("invalid matrix dims %dx%d", r.Rows, r.Cols)
	}
	switch r.Format {
	case model.FormatDense:
		if len(r.Data) != r.Rows*r.Cols {
			return nil, fmt.Errorf("dense matrix %dx%d has %d values", r.Rows, r.Cols, len(r.Data))
		}
		return mat.NewDense(r.Rows, r.Cols, append([]float64(nil), r.Data...)), nil
	case model.FormatCSR:
		m, err := sparse.NewCSR(r.Rows, r.Cols,
			append([]int(nil), r.Indptr...),
			append([]int(nil), r.Indices...),
			append([]float64(nil), r.Data...))
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported matrix format %q", r.Format)
	}
}
