// Package extract invokes the external pdftotext binary to pull plain text
// out of stored documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

const defaultBinary = "pdftotext"

// PDFToText implements core.TextExtractor by calling the pdftotext binary.
type PDFToText struct {
	binary string
}

// New creates a PDFToText extractor; an empty binary selects "pdftotext".
func New(binary string) *PDFToText {
	if binary == "" {
		binary = defaultBinary
	}

	return &PDFToText{binary: binary}
}

// Extract returns the plain text of the document at path.
func (p *PDFToText) Extract(ctx context.Context, path string) (string, error) {
	_, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	var stdout, stderr bytes.Buffer

	// #nosec G204 -- the path is composed from the configured upload
	// directory and the stored upload filename.
	cmd := exec.CommandContext(ctx, p.binary, "-layout", "-enc", "UTF-8", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		return "", fmt.Errorf("%s execution failed: %w - output: %s", p.binary, err, stderr.String())
	}

	return stdout.String(), nil
}
