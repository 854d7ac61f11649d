package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/parkdash/pkg/domain"
)

// SaveFile writes a downloaded export into dir and returns its path.
// The file name keeps only its base so a response cannot escape dir.
func SaveFile(dir string, f domain.File) (string, error) {
	name := filepath.Base(strings.TrimSpace(f.Name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "export.xlsx"
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// ReadImport loads a spreadsheet from path as the body of an import operation.
func ReadImport(path string) (domain.ImportRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImportRequest{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if filepath.Ext(path) == ".xlsx" {
		mimeType = domain.SpreadsheetMIME
	}
	return domain.ImportRequest{ExcelFile: domain.NewDocument(filepath.Base(path), mimeType, data)}, nil
}
