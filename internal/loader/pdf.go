// Package loader reads source documents into page-ordered text.
package loader

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"guardian/internal/domain"
)

// PDFLoader extracts per-page plain text from a PDF file. The document's
// source identity is the input path, page numbers are 1-based.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader { return &PDFLoader{} }

func (l *PDFLoader) Load(ctx context.Context, path string) (domain.Document, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: open %s: %v", domain.ErrDocumentLoad, path, err)
	}
	defer f.Close()

	doc := domain.Document{Path: path}
	for i := 1; i <= rdr.NumPage(); i++ {
		page := rdr.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: page %d of %s: %v", domain.ErrDocumentLoad, i, path, err)
		}
		doc.Pages = append(doc.Pages, domain.Page{Number: i, Text: text})
	}
	return doc, nil
}
