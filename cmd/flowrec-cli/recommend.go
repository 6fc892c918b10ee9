package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"yashubustudio/flowrec/flowrec"
)

type recommendOptions struct {
	inputPath  string
	column     string
	format     string
	outputPath string
	outputDir  string
	stdout     bool
	noBOM      bool
}

func newRecommendCommand(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Resolve substance names from a file and write recommended flows as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecommend(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.inputPath, "input", "", "Text/CSV/TSV file with one substance per line, or - for stdin")
	f.StringVar(&opts.column, "column", "", "Column name or #index holding substance names (CSV/TSV)")
	f.StringVar(&opts.format, "format", "", "Input format when reading stdin: text, csv or tsv")
	f.StringVar(&opts.outputPath, "output", "", "CSV file to write results (default uses --output-dir/flow_*.csv)")
	f.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	f.BoolVar(&opts.stdout, "stdout", false, "Print results to STDOUT")
	f.BoolVar(&opts.noBOM, "no-bom", false, "Omit the UTF-8 byte order mark from the CSV")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runRecommend(cmd *cobra.Command, root *rootOptions, opts *recommendOptions) error {
	a, err := root.bootstrap()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	lines, err := readInput(cmd.InOrStdin(), opts)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if len(lines) == 0 {
		return errors.New("input does not contain any substances")
	}

	rows := a.svc.Run(lines)

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	bom := a.cfg.Export.BOM && !opts.noBOM
	if err := flowrec.ExportResultCSV(outputPath, rows, bom); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "추천 결과를 %s 에 저장했습니다\n", outputPath)

	if opts.stdout {
		printSummary(cmd.OutOrStdout(), rows)
	}
	return nil
}

func readInput(stdin io.Reader, opts *recommendOptions) ([]string, error) {
	path := strings.TrimSpace(opts.inputPath)
	if path != "-" {
		return flowrec.ParseInputFile(path, opts.column)
	}
	format := flowrec.FormatText
	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "text", "txt":
	case "csv":
		format = flowrec.FormatCSV
	case "tsv":
		format = flowrec.FormatTSV
	default:
		return nil, fmt.Errorf("unknown input format %q", opts.format)
	}
	return flowrec.ParseInput(stdin, format, opts.column)
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	filename := fmt.Sprintf("flow_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func printSummary(w io.Writer, rows []flowrec.ResultRow) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "==== 유량 추천 결과 ====")
	for i, row := range rows {
		fmt.Fprintf(w, "%d. %s\n", i+1, truncateText(row.Raw, 60))
		fmt.Fprintf(w, "    대표 유해인자: %s\n", row.Key)
		if !row.Found() {
			fmt.Fprintln(w, "    참조 데이터 없음 (N/A)")
			continue
		}
		fmt.Fprintf(w, "    측정 전 %s / 측정 후 %s\n", row.Before, row.After)
	}
}

func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
