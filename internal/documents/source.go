// Package documents turns a directory of PDFs into per-page text.
package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docudive/internal/models"
	"docudive/internal/util"

	"github.com/ledongthuc/pdf"
	"github.com/phuslu/log"
)

// Source yields every document of one ingestion batch. Pages of a document
// are in ascending page order.
type Source interface {
	Documents(ctx context.Context) ([]models.Document, error)
}

// PDFDirectory loads every *.pdf directly under Dir. A missing directory is
// an empty batch.
type PDFDirectory struct {
	Dir    string
	Logger *log.Logger
}

func NewPDFDirectory(dir string, logger *log.Logger) *PDFDirectory {
	return &PDFDirectory{Dir: dir, Logger: logger}
}

func (p *PDFDirectory) Documents(ctx context.Context) ([]models.Document, error) {
	paths, err := ListPDFs(p.Dir)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := LoadPDF(path)
		if err != nil {
			return nil, err
		}
		if p.Logger != nil {
			if !hasText(doc) {
				p.Logger.Warn().Err(util.ErrNoExtractableText).Str("source", path).Msg("pdf yields no chunks")
			}
			p.Logger.Debug().Str("source", path).Int("pages", len(doc.Pages)).Msg("loaded pdf")
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read document dir: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !util.IsPDF(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadPDF extracts the plain text of every page. Pages without extractable
// text are kept with empty text so page numbers stay aligned with the file.
func LoadPDF(path string) (models.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	doc := models.Document{SourcePath: path, Pages: make([]models.Page, 0, r.NumPage())}
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		text := ""
		if !page.V.IsNull() {
			for _, name := range page.Fonts() {
				if _, ok := fonts[name]; !ok {
					font := page.Font(name)
					fonts[name] = &font
				}
			}
			text, err = page.GetPlainText(fonts)
			if err != nil {
				return models.Document{}, fmt.Errorf("extract text %s page %d: %w", path, i-1, err)
			}
		}
		doc.Pages = append(doc.Pages, models.Page{Number: i - 1, Text: util.SanitizeText(text)})
	}
	return doc, nil
}

func hasText(doc models.Document) bool {
	for _, p := range doc.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}
