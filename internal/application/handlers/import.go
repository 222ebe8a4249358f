package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/kin-core/internal/domain/services"
	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing and exporting family documents.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing people
}

// Handle imports a family document from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}
	if parser == nil {
		return nil, invalidInput("unsupported format for file: %s", filePath)
	}
	if opts.OnConflict != "" && !opts.OnConflict.IsValid() {
		return nil, invalidInput("unknown conflict strategy %q (valid: skip, overwrite)", opts.OnConflict)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	doc, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	if doc.Len() == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, doc, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
	})
}

// HandleExport writes the whole family in the given format and returns
// the number of records written.
func (h *ImportHandler) HandleExport(ctx context.Context, w io.Writer, format string) (int, error) {
	enc := parsers.EncoderFor(format)
	if enc == nil {
		return 0, invalidInput("unsupported export format %q (valid: json, csv)", format)
	}
	doc, err := h.service.Export(ctx)
	if err != nil {
		return 0, err
	}
	if err := enc.Encode(w, doc); err != nil {
		return 0, fmt.Errorf("encoding export: %w", err)
	}
	return doc.Len(), nil
}
