// Package stats summarizes fitted reservoir weights.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"pyrcn/internal/layer"
	"pyrcn/internal/model"
	"pyrcn/internal/sparse"
)

type MatrixStats struct {
	Format    string  `json:"format"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	NNZ       int     `json:"nnz"`
	Density   float64 `json:"density"`
	RowNNZMin int     `json:"row_nnz_min"`
	RowNNZMax int     `json:"row_nnz_max"`
	Values    Summary `json:"values"`
	// Bytes is the in-memory size of the stored entries.
	Bytes int `json:"bytes"`
}

// Summary describes the stored values of a matrix or vector.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

type LayerStats struct {
	NComponents int                   `json:"n_components"`
	NFeatures   int                   `json:"n_features"`
	Activation  string                `json:"activation_function"`
	Feedforward MatrixStats           `json:"feedforward"`
	Recurrent   *MatrixStats          `json:"recurrent,omitempty"`
	Bias        Summary               `json:"bias"`
	Spectral    model.SpectralSummary `json:"spectral"`
	// MeasuredRadius is max|λ| of the stored recurrent matrix, computed
	// densely when the matrix is small enough.
	MeasuredRadius *float64 `json:"measured_radius,omitempty"`
}

// MaxDenseEigen bounds the recurrent size for which Describe runs a full
// dense eigendecomposition.
const MaxDenseEigen = 512

func Describe(st *layer.State) LayerStats {
	info := st.Spectral()
	cfg := st.Config()
	out := LayerStats{
		NComponents: st.NComponents(),
		NFeatures:   st.NFeatures(),
		Activation:  cfg.Activation,
		Feedforward: DescribeMatrix(st.Feedforward()),
		Bias:        summarize(st.Bias()),
		Spectral: model.SpectralSummary{
			Target:     info.Target,
			Estimate:   info.Estimate,
			Scale:      info.Scale,
			Attempts:   info.Attempts,
			Converged:  info.Converged,
			Normalized: info.Normalized,
		},
	}
	if rec := st.Recurrent(); rec != nil {
		ms := DescribeMatrix(rec)
		out.Recurrent = &ms
		if n, _ := rec.Dims(); n <= MaxDenseEigen {
			if r, ok := denseRadius(rec); ok {
				out.MeasuredRadius = &r
			}
		}
	}
	return out
}

func DescribeMatrix(m mat.Matrix) MatrixStats {
	rows, cols := m.Dims()
	out := MatrixStats{Rows: rows, Cols: cols}
	var values []float64
	perRow := make([]int, rows)

	if csr, ok := m.(*sparse.CSR); ok {
		out.Format = model.FormatCSR
		values = make([]float64, 0, csr.NNZ())
		csr.DoNonZero(func(i, _ int, v float64) {
			perRow[i]++
			values = append(values, v)
		})
		out.Bytes = csr.NNZ()*16 + (rows+1)*8
	} else {
		out.Format = model.FormatDense
		values = make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := m.At(i, j)
				if v != 0 {
					perRow[i]++
				}
				values = append(values, v)
			}
		}
		out.Bytes = rows * cols * 8
	}

	out.NNZ = len(values)
	if rows > 0 && cols > 0 {
		out.Density = float64(out.NNZ) / float64(rows*cols)
	}
	if rows > 0 {
		out.RowNNZMin, out.RowNNZMax = perRow[0], perRow[0]
		for _, c := range perRow[1:] {
			out.RowNNZMin = min(out.RowNNZMin, c)
			out.RowNNZMax = max(out.RowNNZMax, c)
		}
	}
	out.Values = summarize(values)
	return out
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Min: floats.Min(values), Max: floats.Max(values)}
	if len(values) == 1 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}

func denseRadius(m mat.Matrix) (float64, bool) {
	var eig mat.Eigen
	if !eig.Factorize(mat.DenseCopyOf(m), mat.EigenNone) {
		return 0, false
	}
	var radius float64
	for _, v := range eig.Values(nil) {
		radius = math.Max(radius, math.Hypot(real(v), imag(v)))
	}
	return radius, true
}
