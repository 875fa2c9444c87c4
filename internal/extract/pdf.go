package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"gradermate-backend/internal/extract/vision"
	"gradermate-backend/internal/llm"
	"gradermate-backend/internal/shared/telemetry"
	"gradermate-backend/internal/shared/util"
)

// documentPageLimit bounds how many pages of a document get processed.
const documentPageLimit = 5

// rasterDPI trades OCR quality against pdftoppm output size.
const rasterDPI = 108

// pdfDocument is the slice of the PDF engine decodePDF needs: a page count
// and per-page text-layer extraction.
type pdfDocument interface {
	PageCount() int
	PageText(n int) (string, error)
}

type pdfFile struct {
	reader *pdf.Reader
}

func openPDFDocument(data []byte) (pdfDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pdfFile{reader: reader}, nil
}

func (f *pdfFile) PageCount() int { return f.reader.NumPage() }

func (f *pdfFile) PageText(n int) (string, error) {
	page := f.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// decodePDF processes each page twice over: the selectable text layer is
// extracted, and the page is rasterized and pushed through the image pipeline
// so figures and scans are analysed even when a caption put a few words in
// the text layer. Pages with no text layer at all get a forced vision pass,
// since a text-free PDF page is almost always a scan or figure.
func (s *Service) decodePDF(ctx context.Context, token string, att Attachment, budget *vision.Budget, cfg llm.AIConfig) (string, error) {
	data, err := s.fetch(ctx, att.URL, token)
	if err != nil {
		return "", err
	}

	doc, err := s.openPDF(data)
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	totalPages := doc.PageCount()
	pages := totalPages
	if pages > documentPageLimit {
		pages = documentPageLimit
	}

	var sections []string
	for i := 1; i <= pages; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			telemetry.Warn("extract.pdf_page_text_failed", map[string]any{
				"file": att.Filename, "page": i, "error": err.Error(),
			})
			text = ""
		}
		pageText := util.CollapseNewlines(strings.TrimSpace(text))

		raster, err := s.rasterize(ctx, data, i)
		if err != nil {
			telemetry.Warn("extract.pdf_rasterize_failed", map[string]any{
				"file": att.Filename, "page": i, "error": err.Error(),
			})
			if pageText == "" {
				sections = append(sections, fmt.Sprintf("[Page %d]\n%s", i, decodeFailurePlaceholder))
			} else {
				sections = append(sections, fmt.Sprintf("[Page %d]\n%s", i, pageText))
			}
			continue
		}

		label := fmt.Sprintf("%s page %d", att.Filename, i)
		block := s.analyzeImage(ctx, raster, "image/jpeg", label, pageText == "", budget, cfg)
		body := block
		if pageText != "" {
			body = pageText + "\n\n" + block
		}
		sections = append(sections, fmt.Sprintf("[Page %d]\n%s", i, body))
	}

	if totalPages > documentPageLimit {
		sections = append(sections, fmt.Sprintf("[Processed first %d of %d pages]", pages, totalPages))
	}
	if len(sections) == 0 {
		return noContentPlaceholder, nil
	}
	return util.Truncate(strings.Join(sections, "\n\n"), textTruncateLimit), nil
}

// rasterizePage shells out to pdftoppm to render a single page as JPEG.
func (s *Service) rasterizePage(ctx context.Context, data []byte, page int) ([]byte, error) {
	dir, err := os.MkdirTemp("", "pdfpage")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, err
	}

	out := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, s.pdftoppmPath,
		"-jpeg",
		"-r", strconv.Itoa(rasterDPI),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-singlefile",
		src, out)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return os.ReadFile(out + ".jpg")
}
