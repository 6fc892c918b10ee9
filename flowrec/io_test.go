package flowrec

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputText(t *testing.T) {
	lines, err := ParseInput(strings.NewReader("\ufeff톨루엔\r\n\r\n 아세톤 \n"), FormatText, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"톨루엔", "아세톤"}, lines)
}

func TestParseInputDelimited(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		format  InputFormat
		column  string
		want    []string
		wantErr bool
	}{
		{
			name:   "detected header",
			input:  "번호,유해인자\n1,톨루엔\n2,아세톤\n",
			format: FormatCSV,
			want:   []string{"톨루엔", "아세톤"},
		},
		{
			name:   "bom before header",
			input:  "\ufeff유해인자\n톨루엔\n",
			format: FormatCSV,
			want:   []string{"톨루엔"},
		},
		{
			name:   "quoted list stays one line",
			input:  "유해인자\n\"1,1-디클로로에탄, 아세톤\"\n",
			format: FormatCSV,
			want:   []string{"1,1-디클로로에탄, 아세톤"},
		},
		{
			name:   "tsv",
			input:  "물질명\t비고\n톨루엔\tx\n\t\n석영\t\n",
			format: FormatTSV,
			want:   []string{"톨루엔", "석영"},
		},
		{
			name:   "explicit header name",
			input:  "a,b\n톨루엔,석영\n",
			format: FormatCSV,
			column: "B",
			want:   []string{"석영"},
		},
		{
			name:   "explicit index on headerless file",
			input:  "1,톨루엔\n2,아세톤\n",
			format: FormatCSV,
			column: "#2",
			want:   []string{"톨루엔", "아세톤"},
		},
		{
			name:   "short rows skipped",
			input:  "번호,유해인자\n1\n2,아세톤\n",
			format: FormatCSV,
			want:   []string{"아세톤"},
		},
		{name: "unknown column", input: "a,b\n1,2\n", format: FormatCSV, column: "c", wantErr: true},
		{name: "zero index", input: "a,b\n1,2\n", format: FormatCSV, column: "#0", wantErr: true},
		{name: "index out of range", input: "a,b\n1,2\n", format: FormatCSV, column: "#3", wantErr: true},
		{name: "empty file", input: "", format: FormatCSV, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(strings.NewReader(tt.input), tt.format, tt.column)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnCandidatesOverride(t *testing.T) {
	t.Cleanup(func() { SetColumnCandidates(DefaultColumnCandidates()) })

	SetColumnCandidates(ColumnCandidates{Substance: []string{"chem"}})
	got, err := ParseInput(strings.NewReader("id,chem\n1,톨루엔\n"), FormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"톨루엔"}, got)

	SetColumnCandidates(ColumnCandidates{})
	assert.Equal(t, DefaultColumnCandidates(), getColumnCandidates())
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatCSV, FormatForPath("in.CSV"))
	assert.Equal(t, FormatTSV, FormatForPath("dir/in.tsv"))
	assert.Equal(t, FormatText, FormatForPath("in.txt"))
	assert.Equal(t, FormatText, FormatForPath("noext"))
}

func TestWriteResultCSV(t *testing.T) {
	rows := []ResultRow{
		{Raw: "톨루엔(Toluene)", Key: "톨루엔", Before: FlowFromMilli(202), After: FlowFromMilli(200)},
		{Raw: "1,1-디클로로에탄, 아세톤", Key: "1,1-디클로로에탄", Before: FlowFromMilli(199), After: FlowFromMilli(197)},
		{Raw: "미등록", Key: "미등록"},
	}
	want := "입력 유해인자,대표 유해인자,측정 전 유량,측정 후 유량\n" +
		"톨루엔(Toluene),톨루엔,0.202,0.200\n" +
		"\"1,1-디클로로에탄, 아세톤\",\"1,1-디클로로에탄\",0.199,0.197\n" +
		"미등록,미등록,N/A,N/A\n"

	var plain bytes.Buffer
	require.NoError(t, WriteResultCSV(&plain, rows, false))
	assert.Equal(t, want, plain.String())

	var withBOM bytes.Buffer
	require.NoError(t, WriteResultCSV(&withBOM, rows, true))
	assert.True(t, bytes.HasPrefix(withBOM.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, want, strings.TrimPrefix(withBOM.String(), "\ufeff"))

	back, err := ParseInput(bytes.NewReader(withBOM.Bytes()), FormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"톨루엔(Toluene)", "1,1-디클로로에탄, 아세톤", "미등록"}, back)
}

func TestExportResultCSVAndParseInputFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "csv", "result.csv")
	rows := []ResultRow{{Raw: "석영", Key: "석영", Before: FlowFromMilli(1700), After: FlowFromMilli(1698)}}

	require.NoError(t, ExportResultCSV(out, rows, true))

	lines, err := ParseInputFile(out, "#1")
	require.NoError(t, err)
	assert.Equal(t, []string{"입력 유해인자", "석영"}, lines)

	txt := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(txt, []byte("석영\n톨루엔\n"), 0o644))
	lines, err = ParseInputFile(txt, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"석영", "톨루엔"}, lines)

	_, err = ParseInputFile(filepath.Join(dir, "missing.txt"), "")
	assert.Error(t, err)
}
