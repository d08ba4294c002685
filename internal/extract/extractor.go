package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/models"
)

var ErrUnsupportedType = errors.New("unsupported document type")

// segment is a run of text sharing one page label before chunking.
type segment struct {
	text string
	page string
}

type formatFunc func(ctx context.Context, path string) ([]segment, error)

var formats = map[string]formatFunc{
	".pdf":  extractPDF,
	".txt":  extractPlain,
	".md":   extractPlain,
	".csv":  extractCSV,
	".xlsx": extractXLSX,
	".html": extractHTML,
	".htm":  extractHTML,
	".json": extractJSON,
}

// Supported reports whether files with this name's extension can be extracted.
func Supported(name string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extractor turns corpus files into passages with provenance metadata.
type Extractor struct {
	maxChunk int
	overlap  int
}

func New(maxChunk, overlap int) *Extractor {
	if maxChunk <= 0 {
		maxChunk = 1000
	}
	if overlap < 0 || overlap >= maxChunk {
		overlap = 0
	}
	return &Extractor{maxChunk: maxChunk, overlap: overlap}
}

// ExtractFile extracts one file. Whitespace-only passages are dropped, so a
// readable but empty document yields no passages and no error.
func (e *Extractor) ExtractFile(ctx context.Context, path string) ([]models.Passage, error) {
	extract, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(path))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	segments, err := extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}

	source := filepath.Base(path)
	var passages []models.Passage
	for _, seg := range segments {
		for _, chunk := range splitText(seg.text, e.maxChunk, e.overlap) {
			passages = append(passages, models.Passage{
				Text:     chunk,
				Source:   source,
				Page:     seg.page,
				FullPath: abs,
			})
		}
	}
	return passages, nil
}

// ExtractDir extracts every supported regular file in dir, in name order.
// Hidden files are ignored; unsupported or unreadable files are skipped with a
// warning. Only a cancelled context aborts the walk.
func (e *Extractor) ExtractDir(ctx context.Context, dir string) ([]models.Passage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var passages []models.Passage
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !Supported(name) {
			logger.Warn("Skipping unsupported document", "file", name)
			continue
		}

		filePassages, err := e.ExtractFile(ctx, filepath.Join(dir, name))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("Skipping unreadable document", "file", name, "error", err)
			continue
		}
		logger.Debug("Extracted document", "file", name, "passages", len(filePassages))
		passages = append(passages, filePassages...)
	}
	return passages, nil
}
