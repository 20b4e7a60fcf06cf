package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	MimePDF = "application/pdf"
	// MaxFileBytes is the largest accepted upload.
	MaxFileBytes = 10 << 20
	// MinTextChars is the shortest usable normalized text.
	MinTextChars = 200
)

var (
	// ErrUnreadable means the PDF could not be parsed.
	ErrUnreadable = errors.New("unreadable pdf")
	// ErrTooLittleText means parsing worked but yielded too little text.
	ErrTooLittleText = errors.New("not enough text in pdf")
)

// Document is the text pulled from one PDF.
type Document struct {
	Text  string
	Pages int
}

// Parser turns PDF bytes into raw text and a page count.
type Parser func(data []byte) (text string, pages int, err error)

// ParsePDF checks the document structure with pdfcpu, then reads plain text with ledongthuc/pdf.
func ParsePDF(data []byte) (string, int, error) {
	pages, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", pages, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", pages, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", pages, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return buf.String(), pages, nil
}

// Extractor produces normalized resume text from PDF bytes.
type Extractor struct {
	Parse Parser
}

// New returns an Extractor backed by ParsePDF.
func New() *Extractor {
	return &Extractor{Parse: ParsePDF}
}

// Extract parses data and normalizes the text. Parser panics are reported as ErrUnreadable.
func (e *Extractor) Extract(ctx context.Context, data []byte) (doc Document, err error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = Document{}, fmt.Errorf("%w: parser panic: %v", ErrUnreadable, r)
		}
	}()

	parse := e.Parse
	if parse == nil {
		parse = ParsePDF
	}
	raw, pages, err := parse(data)
	if err != nil {
		if !errors.Is(err, ErrUnreadable) {
			err = fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return Document{}, err
	}
	text := Normalize(raw)
	if len([]rune(text)) < MinTextChars {
		return Document{Text: text, Pages: pages}, ErrTooLittleText
	}
	return Document{Text: text, Pages: pages}, nil
}

// Normalize collapses every whitespace run to one space and trims the result.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	space := false
	for _, r := range raw {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
