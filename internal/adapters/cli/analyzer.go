// Package cli analyses a local image file and prints the result, bypassing
// the multipart transport.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/core"
)

// Analyzer implements a command-line interface for image analysis
type Analyzer struct {
	service *core.AnalysisService
	logger  *zap.Logger
	out     io.Writer
	verbose bool
}

// NewAnalyzer creates a new CLI analyzer writing to out
func NewAnalyzer(service *core.AnalysisService, logger *zap.Logger, out io.Writer, verbose bool) *Analyzer {
	if out == nil {
		out = os.Stdout
	}
	return &Analyzer{
		service: service,
		logger:  logger,
		out:     out,
		verbose: verbose,
	}
}

// LoadFile reads path into an upload. The content type comes from the file
// extension, or from content sniffing when the extension is unknown.
func LoadFile(path string) (*core.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	contentType := mime.TypeByExtension(ext)
	if ext == ".tif" || ext == ".tiff" {
		// missing from Go's builtin table and from many mime.types files
		contentType = "image/tiff"
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &core.UploadedFile{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// AnalyzeFile loads, analyses and prints the result for path
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*core.AnalysisResponse, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, file)
}

// Analyze analyses file and prints a human-readable report
func (a *Analyzer) Analyze(ctx context.Context, file *core.UploadedFile) (*core.AnalysisResponse, error) {
	a.logger.Debug("Processing image", zap.String("filename", file.Filename))

	fmt.Fprintf(a.out, "\n=== Image Summary ===\n")
	fmt.Fprintf(a.out, "File: %s\n", file.Filename)
	fmt.Fprintf(a.out, "Content type: %s\n", file.ContentType)
	fmt.Fprintf(a.out, "Size: %d bytes\n", file.Size)
	fmt.Fprintf(a.out, "\n")

	fmt.Fprintf(a.out, "=== Analysis ===\n")
	fmt.Fprintf(a.out, "Classifying image...\n")
	result, err := a.service.Analyze(ctx, file)
	if err != nil {
		a.logger.Error("Failed to analyse image", zap.Error(err))
		if msg := core.MessageOf(err); msg != "" {
			fmt.Fprintf(a.out, "Error: %s\n", msg)
		} else {
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
		return nil, err
	}

	fmt.Fprintf(a.out, "\n=== Results ===\n")
	fmt.Fprintf(a.out, "Top label: %s\n", result.Label)
	fmt.Fprintf(a.out, "Malignant-leaning: %t\n", result.Malignant)
	fmt.Fprintf(a.out, "Confidence: %.4f\n", result.Confidence)
	fmt.Fprintf(a.out, "Malignancy score: %.4f (keyword heuristic, not a calibrated probability)\n", result.MalignancyScore)
	fmt.Fprintf(a.out, "Analysis: %s\n", result.Analysis)
	fmt.Fprintf(a.out, "Model used: %s\n", result.ModelUsed)
	fmt.Fprintf(a.out, "Processing time: %ss\n", result.ProcessingTime)

	if a.verbose {
		fmt.Fprintf(a.out, "\nPredictions:\n")
		for _, p := range result.Predictions {
			fmt.Fprintf(a.out, "  %-40s %.4f\n", p.Label, p.Score)
		}
	}

	return result, nil
}

// AnalyzeFileJSON analyses path and prints only the JSON response body
func (a *Analyzer) AnalyzeFileJSON(ctx context.Context, path string) (*core.AnalysisResponse, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	result, err := a.service.Analyze(ctx, file)
	if err != nil {
		a.logger.Error("Failed to analyse image", zap.Error(err))
		return nil, err
	}
	return result, a.PrintJSON(result)
}

// PrintJSON writes the response body the HTTP frontend would send
func (a *Analyzer) PrintJSON(result *core.AnalysisResponse) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
