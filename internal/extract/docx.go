package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"gradermate-backend/internal/extract/vision"
	"gradermate-backend/internal/llm"
	"gradermate-backend/internal/shared/telemetry"
	"gradermate-backend/internal/shared/util"
)

// docxImageLimit bounds how many embedded images of a document are analysed.
const docxImageLimit = 5

type docxRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// decodeDOCX streams word/document.xml for paragraph text and collects the
// embedded-image references in document order. Up to docxImageLimit images
// are run through the image pipeline; the rest are only counted.
func (s *Service) decodeDOCX(ctx context.Context, token string, att Attachment, budget *vision.Budget, cfg llm.AIConfig) (string, error) {
	data, err := s.fetch(ctx, att.URL, token)
	if err != nil {
		return "", err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	rels := docxRels(zr)
	text, imageIDs, err := docxDocument(zr)
	if err != nil {
		return "", err
	}

	var sections []string
	if text != "" {
		sections = append(sections, text)
	}

	analysed := 0
	for i, rID := range imageIDs {
		if analysed >= docxImageLimit {
			break
		}
		target, ok := rels[rID]
		if !ok {
			continue
		}
		img, mimeType, err := docxReadImage(zr, target)
		if err != nil {
			telemetry.Warn("extract.docx_image_failed", map[string]any{
				"file": att.Filename, "target": target, "error": err.Error(),
			})
			continue
		}
		analysed++
		label := fmt.Sprintf("%s image %d", att.Filename, i+1)
		block := s.analyzeImage(ctx, img, mimeType, label, false, budget, cfg)
		sections = append(sections, fmt.Sprintf("[Image %d]\n%s", i+1, block))
	}

	if len(imageIDs) > 0 {
		sections = append(sections, fmt.Sprintf("[Analysed %d of %d embedded image(s)]", analysed, len(imageIDs)))
	}
	if len(sections) == 0 {
		return noContentPlaceholder, nil
	}
	return util.Truncate(strings.Join(sections, "\n\n"), textTruncateLimit), nil
}

// docxRels maps relationship IDs to their targets inside the archive.
func docxRels(zr *zip.Reader) map[string]string {
	out := map[string]string{}
	f, err := zr.Open("word/_rels/document.xml.rels")
	if err != nil {
		return out
	}
	defer f.Close()

	var rels docxRelationships
	if err := xml.NewDecoder(f).Decode(&rels); err != nil {
		return out
	}
	for _, r := range rels.Relationships {
		out[r.ID] = r.Target
	}
	return out
}

// docxDocument extracts paragraph text and the ordered list of embedded
// image relationship IDs from word/document.xml.
func docxDocument(zr *zip.Reader) (string, []string, error) {
	f, err := zr.Open("word/document.xml")
	if err != nil {
		return "", nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer f.Close()

	var (
		b        strings.Builder
		imageIDs []string
		inText   bool
	)
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("parse document.xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "br":
				b.WriteByte('\n')
			case "tab":
				b.WriteByte('\t')
			case "blip":
				for _, attr := range el.Attr {
					if attr.Name.Local == "embed" {
						imageIDs = append(imageIDs, attr.Value)
					}
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(el)
			}
		}
	}
	return util.CollapseNewlines(strings.TrimSpace(b.String())), imageIDs, nil
}

// docxReadImage loads an embedded image part, resolving the relationship
// target against the word/ directory.
func docxReadImage(zr *zip.Reader, target string) ([]byte, string, error) {
	name := strings.TrimPrefix(target, "/")
	if !strings.HasPrefix(name, "word/") {
		name = path.Join("word", name)
	}
	f, err := zr.Open(name)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	mimeType := mime.TypeByExtension(path.Ext(name))
	if mimeType == "" {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}
