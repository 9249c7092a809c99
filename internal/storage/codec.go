package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"pyrcn/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var (
	ErrVersionMismatch = errors.New("record version mismatch")
	ErrInvalidRecord   = errors.New("invalid layer record")
)

func EncodeLayer(r model.LayerRecord) ([]byte, error) {
	if err := validateRecord(r); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

func DecodeLayer(data []byte) (model.LayerRecord, error) {
	var record model.LayerRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.LayerRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.LayerRecord{}, err
	}
	if err := validateRecord(record); err != nil {
		return model.LayerRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// validateRecord only checks what the store relies on; shape consistency
// is verified when the layer is rebuilt.
func validateRecord(r model.LayerRecord) error {
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	if err := validateMatrix("feedforward", r.Feedforward); err != nil {
		return err
	}
	if r.Recurrent != nil {
		if err := validateMatrix("recurrent", *r.Recurrent); err != nil {
			return err
		}
	}
	return nil
}

func validateMatrix(name string, m model.MatrixRecord) error {
	switch m.Format {
	case model.FormatDense, model.FormatCSR:
	default:
		return fmt.Errorf("%w: %s matrix has unknown format %q", ErrInvalidRecord, name, m.Format)
	}
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("%w: %s matrix has negative dims", ErrInvalidRecord, name)
	}
	return nil
}
