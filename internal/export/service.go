package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/normalize"
)

// Item represents a single exported document with its local file path.
type Item struct {
	Document *document.Document
	FilePath string
}

// Service assembles audit packets: the source invoice PDFs for a period
// plus a CSV manifest. Packets back the retention requirement, so they
// must stand alone without database access.
type Service struct {
	documents *document.Service
}

func NewService(docService *document.Service) *Service {
	return &Service{documents: docService}
}

// Export copies the source files of documents matching the filter into the
// output directory. It returns a list of items linking documents to their
// copied files; documents whose source file is gone are included without
// one.
func (s *Service) Export(ctx context.Context, filter document.ListFilter, outputDir string) ([]Item, error) {
	docs, err := s.documents.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(docs))

	for _, d := range docs {
		item := Item{
			Document: d,
		}

		if d.SourcePath != "" {
			path, err := s.copySource(d, outputDir)
			if err == nil {
				item.FilePath = path
			}
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *Service) copySource(d *document.Document, dir string) (string, error) {
	src, err := os.Open(d.SourcePath)
	if err != nil {
		return "", fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, s.packetFilename(d))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func (s *Service) packetFilename(d *document.Document) string {
	ext := filepath.Ext(d.SourcePath)
	if ext == "" {
		ext = ".pdf"
	}

	// Sanitize vendor and invoice number for use in a filename.
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, d.VendorKey+"_"+d.InvoiceNumber)

	// Format: YYYYMMDD_vendor_invoice.ext
	return fmt.Sprintf("%s_%s%s", d.InvoiceDate.Format("20060102"), safe, ext)
}

// GenerateManifest renders the exported items as a CSV manifest, one row
// per document in the packet.
func (s *Service) GenerateManifest(items []Item) (string, error) {
	var sb strings.Builder

	w := csv.NewWriter(&sb)

	header := []string{"invoice_date", "vendor", "invoice_number", "po_number", "total", "status", "file"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing manifest header: %w", err)
	}

	for _, item := range items {
		d := item.Document

		date := ""
		if !d.InvoiceDate.IsZero() {
			date = d.InvoiceDate.Format("2006-01-02")
		}

		file := "missing"
		if item.FilePath != "" {
			file = filepath.Base(item.FilePath)
		}

		row := []string{
			date,
			d.VendorName,
			d.InvoiceNumber,
			d.PONumber,
			normalize.FormatCurrency(d.Total),
			string(d.Status),
			file,
		}

		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing manifest row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing manifest: %w", err)
	}

	return sb.String(), nil
}
