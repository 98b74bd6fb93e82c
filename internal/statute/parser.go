package statute

import (
	"bytes"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
)

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1254 = "windows-1254"
)

// Options tunes a Parser. The zero value keeps every line the plain
// line-by-line rules would keep, with no normalization or decoding.
type Options struct {
	// NormalizeUnicode applies NFC normalization before parsing, so letters
	// decomposed by PDF extraction (e.g. "I" + U+0307) match the patterns.
	NormalizeUnicode bool

	// StrictHierarchy keeps heading lines out of article text and pins each
	// chunk to the part and section it started in. KISIM/BÖLÜM title lines
	// and caption lines right before a MADDE are not appended to the
	// previous article, and a caption ending in sentence punctuation is
	// treated as body text rather than a caption.
	StrictHierarchy bool

	// Encoding of files and readers: "utf-8" (default) or "windows-1254".
	Encoding string
}

// Parser turns statute text into chunks. It holds no per-document state and
// is safe for concurrent use; each call runs with a fresh parse state.
type Parser struct {
	patterns *Patterns
	opts     Options
}

// NewParser creates a parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{
		patterns: NewPatterns(),
		opts:     opts,
	}
}

var defaultParser = NewParser(Options{})

// Parse parses text with default options and returns its chunks.
func Parse(text string) []Chunk {
	return defaultParser.Parse(text).Chunks
}

// Parse parses the full text of one document.
func (p *Parser) Parse(text string) *Result {
	if p.opts.NormalizeUnicode {
		text = norm.NFC.String(text)
	}

	r := &run{
		patterns: p.patterns,
		opts:     p.opts,
		st:       newState(),
		lines:    strings.Split(text, "\n"),
	}

	for i, raw := range r.lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		class := r.classify(line, i)
		r.st.ruleHits[string(class)]++

		// Page furniture is not a caption candidate in strict mode.
		if class == RulePageMarker && p.opts.StrictHierarchy {
			continue
		}
		r.st.previousLine = line
	}

	r.saveArticle()

	return &Result{
		Metadata:    r.st.meta,
		Chunks:      r.st.chunks,
		Diagnostics: r.st.diagnostics,
		RuleHits:    r.st.ruleHits,
		Lines:       len(r.lines),
	}
}

// ParseReader decodes and parses everything read from rd.
func (p *Parser) ParseReader(rd io.Reader) (*Result, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.IOError("reading statute text", err)
	}

	return p.ParseBytes(data)
}

// ParseBytes decodes raw file content with the configured encoding and
// parses it.
func (p *Parser) ParseBytes(data []byte) (*Result, error) {
	text, err := p.decode(data)
	if err != nil {
		return nil, err
	}
	return p.Parse(text), nil
}

// ParseFile reads and parses the statute text file at path.
func (p *Parser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError("reading statute file", err).WithDetail("path", path)
	}

	text, err := p.decode(data)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr.WithDetail("path", path)
		}
		return nil, err
	}
	return p.Parse(text), nil
}

var utf8BOM = []byte("\xef\xbb\xbf")

func (p *Parser) decode(data []byte) (string, error) {
	switch strings.ToLower(p.opts.Encoding) {
	case "", EncodingUTF8, "utf8":
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", errors.IOError("statute text is not valid UTF-8", nil)
		}
		return string(data), nil
	case EncodingWindows1254, "cp1254":
		out, err := charmap.Windows1254.NewDecoder().Bytes(data)
		if err != nil {
			return "", errors.IOError("decoding windows-1254 text", err)
		}
		return string(out), nil
	default:
		return "", errors.ValidationError("unsupported encoding: " + p.opts.Encoding)
	}
}
