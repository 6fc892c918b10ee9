package flowrec

import (
	"fmt"
	"sync"
)

// ColumnCandidates defines possible header names for auto-detecting the
// substance column of CSV/TSV input.
type ColumnCandidates struct {
	Substance []string `json:"substance"`
}

var (
	columnCandidatesMu  sync.RWMutex
	activeColumnOptions = defaultColumnCandidates()
)

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Substance: []string{"입력 유해인자", "유해인자", "화학물질", "물질명", "substance", "chemical", "name"},
	}
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// SetColumnCandidates updates the candidates used during auto-detection.
// A nil list falls back to the built-in defaults.
func SetColumnCandidates(candidates ColumnCandidates) {
	columnCandidatesMu.Lock()
	defer columnCandidatesMu.Unlock()
	activeColumnOptions = candidates.withDefaults()
}

func getColumnCandidates() ColumnCandidates {
	columnCandidatesMu.RLock()
	defer columnCandidatesMu.RUnlock()
	return activeColumnOptions.clone()
}

func (c ColumnCandidates) withDefaults() ColumnCandidates {
	if c.Substance == nil {
		return defaultColumnCandidates()
	}
	return c.clone()
}

func (c ColumnCandidates) clone() ColumnCandidates {
	if c.Substance == nil {
		return ColumnCandidates{}
	}
	out := make([]string, len(c.Substance))
	copy(out, c.Substance)
	return ColumnCandidates{Substance: out}
}

// DetectSubstanceColumn returns the index of the first header cell matching a
// substance column candidate, or -1.
func DetectSubstanceColumn(header []string) int {
	cleaned := make([]string, len(header))
	for i, h := range header {
		cleaned[i] = cleanCell(h)
	}
	return findColumn(cleaned, getColumnCandidates().Substance)
}

// ColumnChoice is one selectable column of a delimited input.
type ColumnChoice struct {
	Index int
	Label string
}

// BuildColumnChoices labels every column with its header (or ordinal) and the
// first non-empty value below it.
func BuildColumnChoices(records [][]string, hasHeader bool) []ColumnChoice {
	maxCols := 0
	for _, row := range records {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	choices := make([]ColumnChoice, 0, maxCols)
	for col := 0; col < maxCols; col++ {
		header := fmt.Sprintf("열%d", col+1)
		if hasHeader && len(records) > 0 && col < len(records[0]) {
			if h := cleanCell(records[0][col]); h != "" {
				header = h
			}
		}
		label := fmt.Sprintf("[%d] %s", col+1, header)
		if sample := columnSample(records, col, hasHeader); sample != "" {
			label = fmt.Sprintf("%s (예: %s)", label, sample)
		}
		choices = append(choices, ColumnChoice{Index: col, Label: label})
	}
	return choices
}

func columnSample(records [][]string, col int, hasHeader bool) string {
	values := ExtractColumn(records, col, hasHeader)
	if len(values) == 0 {
		return ""
	}
	runes := []rune(values[0])
	if len(runes) <= 20 {
		return values[0]
	}
	return string(runes[:20]) + "…"
}
