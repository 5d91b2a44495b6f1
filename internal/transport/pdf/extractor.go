// Package pdf extracts text from uploaded PDF documents via UniPDF.
package pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// InitLicense sets the UniPDF metered license key from the environment.
// Must be called once from main before any extraction.
func InitLicense(logger *zap.Logger) {
	key := os.Getenv("UNIDOC_LICENSE_KEY")
	if key == "" {
		logger.Warn("UNIDOC_LICENSE_KEY not set, PDF extraction may fail")
		return
	}
	if err := license.SetMeteredKey(key); err != nil {
		logger.Error("failed to set unidoc license key", zap.Error(err))
	}
}

// Extractor pulls text from PDF streams, page by page.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a PDF text extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractText reads the whole PDF and returns its cleaned text content.
// Unreadable or password-protected files map to domain.ErrCorruptDocument;
// a readable PDF with no text maps to domain.ErrEmptyDocument.
func (e *Extractor) ExtractText(ctx context.Context, r io.ReadSeeker) (string, error) {
	reader, err := model.NewPdfReader(r)
	if err != nil {
		return "", fmt.Errorf("open pdf: %v: %w", err, domain.ErrCorruptDocument)
	}

	if encrypted, err := reader.IsEncrypted(); err != nil {
		return "", fmt.Errorf("check encryption: %v: %w", err, domain.ErrCorruptDocument)
	} else if encrypted {
		ok, err := reader.Decrypt([]byte{})
		if err != nil || !ok {
			return "", fmt.Errorf("password-protected pdf: %w", domain.ErrCorruptDocument)
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("count pages: %v: %w", err, domain.ErrCorruptDocument)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("extract cancelled at page %d: %w", i, err)
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("read page %d: %v: %w", i, err, domain.ErrCorruptDocument)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("prepare page %d: %v: %w", i, err, domain.ErrCorruptDocument)
		}

		text, err := ex.ExtractText()
		if err != nil {
			e.logger.Warn("page extraction failed, skipping",
				zap.Int("page", i), zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	cleaned := domain.CleanText(sb.String())
	if strings.TrimSpace(cleaned) == "" {
		return "", fmt.Errorf("pdf has %d pages but no extractable text: %w",
			numPages, domain.ErrEmptyDocument)
	}
	return cleaned, nil
}
