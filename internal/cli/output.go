// Package cli provides output formatting for the embedserve CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vectorlab/embedserve/internal/models"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteEmbeddings writes an embedding response to w in the given format.
func WriteEmbeddings(w io.Writer, resp *models.EmbeddingResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	default:
		writeEmbeddingsText(w, resp)
		return nil
	}
}

func writeEmbeddingsText(w io.Writer, resp *models.EmbeddingResponse) {
	fmt.Fprintf(w, "model: %s, vectors: %d\n", resp.Model, len(resp.Data))
	for _, e := range resp.Data {
		fmt.Fprintf(w, "[%d] dim=%d %s\n", e.Index, len(e.Embedding), previewVector(e.Embedding, 6))
	}
}

// previewVector renders the first n components, with an ellipsis when cut.
func previewVector(vec []float32, n int) string {
	out := "("
	for i, v := range vec {
		if i >= n {
			out += " ..."
			break
		}
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.4f", v)
	}
	return out + ")"
}

// WriteModels writes a models listing to w in the given format.
func WriteModels(w io.Writer, resp *models.ModelsResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	default:
		for _, m := range resp.Models {
			loaded := ""
			if m.Loaded {
				loaded = " [loaded]"
			}
			fmt.Fprintf(w, "%s dims=%d max_len=%d%s\n", m.Model, m.EmbeddingDimension, m.MaxSeqLen, loaded)
		}
		return nil
	}
}
