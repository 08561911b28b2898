package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"extractor/internal/matcher"
	"extractor/pkg/domain"

	"github.com/go-faster/errors"
)

// wordNamespace is the WordprocessingML main namespace; only its elements
// carry body text.
const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const documentPart = "word/document.xml"

var bodyElement = xml.Name{Space: wordNamespace, Local: "body"} //nolint: gochecknoglobals

func extractDOCX(_ context.Context, path string, domainFilters []string) ([]domain.Email, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "open document")
	}
	defer zr.Close()

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f

			break
		}
	}
	if part == nil {
		return nil, errors.Errorf("%s not found", documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open document part")
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return nil, errors.Wrap(err, "parse document part")
	}

	var emails []domain.Email
	for _, p := range paragraphs {
		emails = append(emails, matcher.Match(p, domainFilters)...)
	}

	return emails, nil
}

// docxParagraphs returns the text of every w:p that is a direct child of
// w:body, in document order. Runs inside a paragraph are concatenated, w:tab
// becomes a tab and w:br/w:cr a newline. Paragraphs in tables, text boxes and
// content controls are not body paragraphs; their text is skipped.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		parents    []xml.Name
		paragraphs []string
		current    *strings.Builder
		// nested counts w:p elements open inside the current paragraph
		nested int
		inText bool
	)
	write := func(s string) {
		if current != nil && nested == 0 {
			current.WriteString(s)
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := xml.Name{}
			if len(parents) > 0 {
				parent = parents[len(parents)-1]
			}
			parents = append(parents, t.Name)

			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				switch {
				case current != nil:
					nested++
				case parent == bodyElement:
					current = &strings.Builder{}
				}
			case "t":
				inText = true
			case "tab":
				write("\t")
			case "br", "cr":
				write("\n")
			}
		case xml.EndElement:
			if len(parents) > 0 {
				parents = parents[:len(parents)-1]
			}

			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				switch {
				case nested > 0:
					nested--
				case current != nil:
					paragraphs = append(paragraphs, current.String())
					current = nil
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				write(string(t))
			}
		}
	}

	return paragraphs, nil
}
