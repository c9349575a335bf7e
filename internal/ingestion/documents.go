package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jonathan/outreach-agent/internal/types"
)

// LoadDocuments reads a {"identifier": "text"} JSON file.
func LoadDocuments(path string) (types.DocumentSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Message: "document set unavailable", Cause: err}
	}
	var docs types.DocumentSet
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, &InputError{Path: path, Message: "document set is not a JSON object", Cause: err}
	}
	if len(docs) == 0 {
		return nil, &InputError{Path: path, Message: "document set is empty"}
	}
	return docs, nil
}

// WriteDocuments stores docs as indented JSON.
func WriteDocuments(path string, docs types.DocumentSet) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(docs, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write documents: %w", err)
	}
	return nil
}

// ExtractionResult reports which PDFs in a directory yielded text.
type ExtractionResult struct {
	Documents types.DocumentSet
	Skipped   map[string]error
}

// ExtractPDFDir extracts every *.pdf in dir, keyed by file name. Files that
// fail to parse are reported in Skipped rather than failing the directory.
func ExtractPDFDir(dir string) (*ExtractionResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &InputError{Path: dir, Message: "document directory unavailable", Cause: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	res := &ExtractionResult{Documents: types.DocumentSet{}, Skipped: map[string]error{}}
	for _, name := range names {
		text, err := ExtractPDFText(filepath.Join(dir, name))
		if err != nil {
			res.Skipped[name] = err
			continue
		}
		res.Documents[name] = text
	}
	return res, nil
}

// ExtractPDFText returns the text content of every page of a PDF.
func ExtractPDFText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		if text := textFromContentStream(data); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no text content found in PDF")
	}
	return CleanText(strings.Join(pages, "\n\n")), nil
}

// pdfLiteral matches a PDF string literal: (text).
var pdfLiteral = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

// textFromContentStream reads the text-showing operators of a page content
// stream. Td, TD, T* and ' start a new line.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfLiteral.FindAllSubmatch(line, -1) {
				sb.WriteString(decodeLiteral(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			for _, m := range pdfLiteral.FindAllSubmatch(line, -1) {
				sb.WriteString(decodeLiteral(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}
	return CleanText(sb.String())
}

// decodeLiteral resolves backslash escapes, including octal codes.
func decodeLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
