package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// Cap very large files to avoid OOM during in-memory extraction.
const maxReadSize = 200 << 20

func readBounded(path string) ([]byte, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if stat.Size() > maxReadSize {
		return nil, fmt.Errorf("file too large for in-memory extraction")
	}
	return os.ReadFile(path)
}

func extractPlain(_ context.Context, path string) ([]segment, error) {
	content, err := readBounded(path)
	if err != nil {
		return nil, err
	}
	return []segment{{text: string(content)}}, nil
}

// extractPDF yields one segment per page, labelled with the 1-based page number.
func extractPDF(ctx context.Context, path string) ([]segment, error) {
	content, err := readBounded(path)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var segments []segment
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		segments = append(segments, segment{text: text, page: strconv.Itoa(i)})
	}
	return segments, nil
}

// extractCSV renders each data row as "header: value" pairs, one segment per row.
func extractCSV(_ context.Context, path string) ([]segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var header []string
	var segments []segment
	for line := 1; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header == nil {
			header = record
			continue
		}
		if text := renderRow(header, record); text != "" {
			segments = append(segments, segment{text: text, page: strconv.Itoa(line)})
		}
	}
	return segments, nil
}

// extractXLSX treats the first non-empty row of each sheet as its header and
// labels row segments with the sheet name.
func extractXLSX(_ context.Context, path string) ([]segment, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var segments []segment
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}

		var header []string
		for _, row := range rows {
			if strings.TrimSpace(strings.Join(row, "")) == "" {
				continue
			}
			if header == nil {
				header = row
				continue
			}
			if text := renderRow(header, row); text != "" {
				segments = append(segments, segment{text: text, page: sheet})
			}
		}
	}
	return segments, nil
}

func renderRow(header, row []string) string {
	parts := make([]string, 0, len(row))
	for i, value := range row {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			parts = append(parts, strings.TrimSpace(header[i])+": "+value)
		} else {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, "; ")
}

func extractHTML(_ context.Context, path string) ([]segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, noscript, nav, footer, header").Remove()

	root := doc.Find("main, article, [role='main']").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" && (len(lines) == 0 || lines[0] != title) {
		lines = append([]string{title}, lines...)
	}
	return []segment{{text: strings.Join(lines, "\n")}}, nil
}

func extractJSON(_ context.Context, path string) ([]segment, error) {
	content, err := readBounded(path)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []segment{{text: string(pretty)}}, nil
}
