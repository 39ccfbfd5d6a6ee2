package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vectorlab/embedserve/internal/models"
)

func sampleResponse() *models.EmbeddingResponse {
	return &models.EmbeddingResponse{
		Model: "dummy-2d",
		Data: []models.Embedding{
			{Index: 0, Embedding: []float32{0.1, 0.2}},
			{Index: 1, Embedding: []float32{0.3, 0.4}},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"", OutputText, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteEmbeddings_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmbeddings(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "model: dummy-2d") || !strings.Contains(out, "vectors: 2") {
		t.Errorf("text output: %s", out)
	}
	if !strings.Contains(out, "[0]") || !strings.Contains(out, "[1]") {
		t.Errorf("expected indexed lines: %s", out)
	}
}

func TestWriteEmbeddings_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmbeddings(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var resp models.EmbeddingResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("json output must round-trip: %v", err)
	}
	if resp.Model != "dummy-2d" || len(resp.Data) != 2 {
		t.Errorf("decoded: %+v", resp)
	}
}

func TestPreviewVector(t *testing.T) {
	long := previewVector([]float32{1, 2, 3, 4}, 2)
	if !strings.Contains(long, "...") {
		t.Errorf("expected ellipsis for cut vector: %s", long)
	}
	short := previewVector([]float32{1}, 2)
	if strings.Contains(short, "...") {
		t.Errorf("no ellipsis expected: %s", short)
	}
}

func TestWriteModels_Text(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.ModelsResponse{Models: []models.ModelStatus{
		{Model: "a", MaxSeqLen: 10, EmbeddingDimension: 2, Loaded: true},
		{Model: "b", MaxSeqLen: 20, EmbeddingDimension: 4},
	}}
	if err := WriteModels(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "a dims=2 max_len=10 [loaded]") {
		t.Errorf("loaded model line: %s", out)
	}
	if strings.Contains(out, "b dims=4 max_len=20 [loaded]") {
		t.Errorf("unloaded model must not show [loaded]: %s", out)
	}
}
