package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Matrix storage formats.
const (
	FormatDense = "dense"
	FormatCSR   = "csr"
)

// LayerRecord is the persisted form of a fitted reservoir layer.
type LayerRecord struct {
	VersionedRecord
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	CreatedAtUTC string          `json:"created_at_utc"`
	Config       LayerConfig     `json:"config"`
	NFeatures    int             `json:"n_features"`
	Feedforward  MatrixRecord    `json:"feedforward"`
	Recurrent    *MatrixRecord   `json:"recurrent,omitempty"`
	Bias         []float64       `json:"bias"`
	Spectral     SpectralSummary `json:"spectral"`
}

type LayerConfig struct {
	NComponents    int     `json:"n_components"`
	DenseOutput    bool    `json:"dense_output"`
	InputScaling   float64 `json:"input_scaling"`
	KIn            int     `json:"k_in"`
	BiasScaling    float64 `json:"bias_scaling"`
	Activation     string  `json:"activation_function"`
	SpectralRadius float64 `json:"spectral_radius"`
	KRec           int     `json:"k_rec"`
	BiDirectional  bool    `json:"bi_directional"`
	RandomSeed     *int64  `json:"random_state,omitempty"`
}

// MatrixRecord holds a matrix either densely (row-major Data) or as CSR
// arrays (Indptr, Indices, Data).
type MatrixRecord struct {
	Format  string    `json:"format"`
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Data    []float64 `json:"data"`
	Indptr  []int     `json:"indptr,omitempty"`
	Indices []int     `json:"indices,omitempty"`
}

type SpectralSummary struct {
	Target     float64 `json:"target"`
	Estimate   float64 `json:"estimate"`
	Scale      float64 `json:"scale"`
	Attempts   int     `json:"attempts"`
	Converged  bool    `json:"converged"`
	Normalized bool    `json:"normalized"`
}

// LayerSummary is the listing view of a stored layer.
type LayerSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	CreatedAtUTC string `json:"created_at_utc"`
	NComponents  int    `json:"n_components"`
	NFeatures    int    `json:"n_features"`
}

func (r LayerRecord) Summary() LayerSummary {
	return LayerSummary{
		ID:           r.ID,
		Name:         r.Name,
		CreatedAtUTC: r.CreatedAtUTC,
		NComponents:  r.Config.NComponents,
		NFeatures:    r.NFeatures,
	}
}
