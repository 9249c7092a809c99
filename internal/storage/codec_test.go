package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeLayerFixture(t *testing.T) {
	data, err := os.ReadFile(fixturePath("minimal_layer_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	record, err := DecodeLayer(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if record.ID != "layer-minimal-1" {
		t.Fatalf("unexpected layer id: %s", record.ID)
	}
	if record.Feedforward.Format != "csr" || len(record.Feedforward.Indptr) != 4 {
		t.Fatalf("unexpected feedforward: %+v", record.Feedforward)
	}
	if record.Recurrent != nil {
		t.Fatalf("expected no recurrent matrix, got %+v", record.Recurrent)
	}
}

func TestEncodeDecodeLayer(t *testing.T) {
	record := sampleRecord("l1", "2026-01-02T00:00:00Z")
	data, err := EncodeLayer(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeLayer(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Recurrent == nil || decoded.Recurrent.Data[5] != 0.4 {
		t.Fatalf("unexpected recurrent matrix: %+v", decoded.Recurrent)
	}
}

func TestDecodeLayerVersionMismatch(t *testing.T) {
	record := sampleRecord("l1", "")
	record.SchemaVersion = CurrentSchemaVersion + 1
	data, err := EncodeLayer(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeLayer(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestEncodeLayerRejectsUnknownFormat(t *testing.T) {
	record := sampleRecord("l1", "")
	record.Feedforward.Format = "coo"
	if _, err := EncodeLayer(record); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid record, got %v", err)
	}
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}
