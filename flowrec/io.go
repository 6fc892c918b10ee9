package flowrec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// InputFormat identifies how an input file is laid out.
type InputFormat string

const (
	FormatText InputFormat = "text"
	FormatCSV  InputFormat = "csv"
	FormatTSV  InputFormat = "tsv"
)

// FormatForPath picks the input format from the file extension.
func FormatForPath(path string) InputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	default:
		return FormatText
	}
}

// ParseInputFile reads substance lines from a text, CSV or TSV file. For
// delimited files column selects the substance column by header name or
// 1-based "#n"; when empty the column is auto-detected.
func ParseInputFile(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	lines, err := ParseInput(f, FormatForPath(path), column)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return lines, nil
}

// ParseInput reads substance lines from r. A leading UTF-8 byte order mark is dropped.
func ParseInput(r io.Reader, format InputFormat, column string) ([]string, error) {
	r = transform.NewReader(r, xunicode.BOMOverride(xunicode.UTF8.NewDecoder()))
	switch format {
	case FormatCSV:
		return parseDelimited(r, ',', column)
	case FormatTSV:
		return parseDelimited(r, '\t', column)
	default:
		return parsePlainText(r)
	}
}

func parsePlainText(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text: %w", err)
	}
	return out, nil
}

func parseDelimited(r io.Reader, comma rune, column string) ([]string, error) {
	records, err := readRecords(r, comma)
	if err != nil {
		return nil, err
	}
	header := make([]string, len(records[0]))
	for i, cell := range records[0] {
		header[i] = cleanCell(cell)
	}
	col, start, err := resolveSubstanceColumn(header, column)
	if err != nil {
		return nil, err
	}
	return ExtractColumn(records, col, start == 1), nil
}

// ReadRecords reads every row of a CSV or TSV input. Rows may have differing
// lengths. A leading UTF-8 byte order mark is dropped.
func ReadRecords(r io.Reader, format InputFormat) ([][]string, error) {
	r = transform.NewReader(r, xunicode.BOMOverride(xunicode.UTF8.NewDecoder()))
	comma := ','
	if format == FormatTSV {
		comma = '\t'
	}
	return readRecords(r, comma)
}

func readRecords(r io.Reader, comma rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty file")
	}
	return records, nil
}

// ExtractColumn returns the non-empty cells of column idx, skipping the first
// row when hasHeader is set.
func ExtractColumn(records [][]string, idx int, hasHeader bool) []string {
	start := 0
	if hasHeader {
		start = 1
	}
	out := make([]string, 0, len(records))
	for i := start; i < len(records); i++ {
		row := records[i]
		if idx < 0 || idx >= len(row) {
			continue
		}
		if v := cleanCell(row[idx]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

// resolveSubstanceColumn returns the column index and the first data row.
func resolveSubstanceColumn(header []string, explicit string) (int, int, error) {
	trimmed := strings.TrimSpace(explicit)
	if trimmed != "" {
		idx, fromHeader, err := matchExplicitColumn(header, trimmed)
		if err != nil {
			return -1, 0, err
		}
		start := 0
		if fromHeader {
			start = 1
		}
		return idx, start, nil
	}
	col := findColumn(header, getColumnCandidates().Substance)
	if col >= 0 {
		return col, 1, nil
	}
	if len(header) == 0 {
		return -1, 0, errors.New("no usable substance column found")
	}
	return 0, 0, nil
}

func matchExplicitColumn(header []string, explicit string) (int, bool, error) {
	for i, col := range header {
		if strings.EqualFold(col, explicit) {
			return i, true, nil
		}
	}
	if strings.HasPrefix(explicit, "#") {
		idx, err := parseColumnIndex(explicit)
		if err != nil {
			return -1, false, err
		}
		if idx >= len(header) {
			return -1, false, fmt.Errorf("column index %s is out of range", explicit)
		}
		return idx, false, nil
	}
	return -1, false, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}

// WriteResultCSV writes rows as comma separated UTF-8, prefixed with a byte
// order mark when bom is set so spreadsheet tools detect the encoding.
func WriteResultCSV(w io.Writer, rows []ResultRow, bom bool) (err error) {
	if bom {
		tw := transform.NewWriter(w, xunicode.UTF8BOM.NewEncoder())
		defer func() {
			if cerr := tw.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("flush encoder: %w", cerr)
			}
		}()
		w = tw
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(ResultHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row.Cells()); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}

// ExportResultCSV writes rows to a new file at path.
func ExportResultCSV(path string, rows []ResultRow, bom bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := WriteResultCSV(f, rows, bom); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
