package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/flowrec/flowrec"
	"yashubustudio/flowrec/internal/logging"
)

func main() {
	fyneApp := app.NewWithID("yashubustudio.flowrec")
	win := fyneApp.NewWindow("유량 추천 엔진")
	win.Resize(fyne.NewSize(1024, 768))

	cfg, err := flowrec.LoadConfig("")
	if err != nil {
		showFatalError(win, fmt.Errorf("설정을 읽지 못했습니다: %w", err))
		return
	}

	loggerBinding := binding.NewString()
	logCapture := newLogCapture(loggerBinding, 300)
	logger := logging.NewWriter(cfg.Log, io.MultiWriter(os.Stdout, logCapture))
	defer logger.Sync()

	table, err := flowrec.LoadReferenceTable(cfg.DatasetPath)
	if err != nil {
		logger.Error("reference dataset unavailable", zap.String("path", cfg.DatasetPath), zap.Error(err))
		showFatalError(win, fmt.Errorf("평균 유량 데이터를 읽지 못했습니다: %w", err))
		return
	}
	service, err := flowrec.NewService(cfg, table, logger)
	if err != nil {
		showFatalError(win, fmt.Errorf("서비스 초기화에 실패했습니다: %w", err))
		return
	}

	var resultRows []flowrec.ResultRow
	var resultMu sync.Mutex

	cfgMu := sync.Mutex{}
	// saveVariant persists only the variant, on top of the file contents, so
	// FLOWREC_* environment overrides never end up in config.json.
	saveVariant := func(v flowrec.Variant) {
		cfgMu.Lock()
		defer cfgMu.Unlock()
		fileCfg, err := flowrec.LoadConfigFile("")
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		fileCfg.Variant = v
		if err := flowrec.SaveConfig("", fileCfg); err != nil {
			logger.Warn("config save failed", zap.Error(err))
		}
	}

	textInput := widget.NewMultiLineEntry()
	textInput.SetPlaceHolder("유해인자 입력 (줄바꿈으로 여러 개)")
	textInput.Wrapping = fyne.TextWrapWord
	textInput.SetMinRowsVisible(10)

	statusLabel := widget.NewLabel(fmt.Sprintf("참조 유해인자 %d종", table.Len()))

	tableData := buildTableData(nil)
	resultTable := widget.NewTable(
		func() (int, int) {
			return len(tableData), len(tableData[0])
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			if id.Row >= len(tableData) || id.Col >= len(tableData[id.Row]) {
				return
			}
			label := obj.(*widget.Label)
			label.SetText(tableData[id.Row][id.Col])
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
			} else {
				label.TextStyle = fyne.TextStyle{}
			}
		},
	)
	for col := range tableData[0] {
		width := float32(140)
		if col < 2 {
			width = 240
		}
		resultTable.SetColumnWidth(col, width)
	}

	runBtn := widget.NewButton("유량 추천 실행", func() {
		lines := flowrec.ParseLines(textInput.Text)
		if len(lines) == 0 {
			showError(win, fmt.Errorf("입력된 유해인자가 없습니다"))
			return
		}
		rows := service.Run(lines)
		resultMu.Lock()
		resultRows = rows
		resultMu.Unlock()
		tableData = buildTableData(rows)
		resultTable.Refresh()
		statusLabel.SetText(fmt.Sprintf("%d건 (미등록 %d건)", len(rows), countMissing(rows)))
	})

	applyLoaded := func(uri fyne.URI, lines []string) {
		textInput.SetText(strings.Join(lines, "\n"))
		logger.Info("input file loaded", zap.String("file", filepath.Base(uri.Path())), zap.Int("lines", len(lines)))
	}

	loadFileBtn := widget.NewButton("파일 불러오기", func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				showError(win, err)
				return
			}
			if rc == nil {
				return
			}
			defer rc.Close()
			uri := rc.URI()
			format := flowrec.FormatForPath(uri.Path())
			if format == flowrec.FormatText {
				lines, err := flowrec.ParseInput(rc, format, "")
				if err != nil {
					showError(win, err)
					return
				}
				applyLoaded(uri, lines)
				return
			}
			records, err := flowrec.ReadRecords(rc, format)
			if err != nil {
				showError(win, err)
				return
			}
			chooseColumn(win, records, func(lines []string) {
				applyLoaded(uri, lines)
			})
		}, win)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".txt", ".csv", ".tsv"}))
		fd.Show()
	})

	exportBtn := widget.NewButton("CSV 다운로드", func() {
		resultMu.Lock()
		rows := append([]flowrec.ResultRow(nil), resultRows...)
		resultMu.Unlock()
		if len(rows) == 0 {
			showError(win, fmt.Errorf("내보낼 결과가 없습니다"))
			return
		}
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				showError(win, err)
				return
			}
			if uc == nil {
				return
			}
			defer uc.Close()
			if err := flowrec.WriteResultCSV(uc, rows, service.Config().Export.BOM); err != nil {
				showError(win, err)
			}
		}, win)
		fd.SetFileName("flow_recommendations.csv")
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
		fd.Show()
	})

	variantSelect := widget.NewSelect([]string{string(flowrec.VariantPerSample), string(flowrec.VariantSingleMean)}, nil)
	variantSelect.SetSelected(string(cfg.Variant))
	variantSelect.OnChanged = func(val string) {
		cfgMu.Lock()
		cfg.Variant = flowrec.Variant(val)
		localCfg := cfg
		cfgMu.Unlock()
		if err := service.UpdateConfig(localCfg); err != nil {
			showError(win, err)
			return
		}
		saveVariant(localCfg.Variant)
	}

	logLabel := widget.NewLabelWithData(loggerBinding)
	logLabel.Wrapping = fyne.TextWrapWord
	logContainer := container.NewVScroll(logLabel)
	logContainer.SetMinSize(fyne.NewSize(200, 120))

	controls := container.NewVBox(
		container.NewHBox(runBtn, loadFileBtn, exportBtn, statusLabel),
		widget.NewLabel("유해인자 입력"),
		textInput,
		widget.NewSeparator(),
		widget.NewLabel("유량 생성 방식"),
		variantSelect,
		widget.NewSeparator(),
		widget.NewLabel("로그"),
		logContainer,
	)

	root := container.NewHSplit(controls, resultTable)
	root.Offset = 0.4
	win.SetContent(root)
	win.ShowAndRun()
}

// chooseColumn asks which column holds substance names unless the file has a
// single column. A recognised header preselects its column.
func chooseColumn(win fyne.Window, records [][]string, apply func([]string)) {
	defaultCol := flowrec.DetectSubstanceColumn(records[0])
	hasHeader := defaultCol >= 0
	if !hasHeader {
		defaultCol = 0
	}
	choices := flowrec.BuildColumnChoices(records, hasHeader)
	if len(choices) == 0 {
		showError(win, fmt.Errorf("유효한 열이 없습니다"))
		return
	}
	if len(choices) == 1 {
		apply(flowrec.ExtractColumn(records, choices[0].Index, hasHeader))
		return
	}
	options := make([]string, len(choices))
	defaultChoice := 0
	for i, c := range choices {
		options[i] = c.Label
		if c.Index == defaultCol {
			defaultChoice = i
		}
	}
	selectedCol := choices[defaultChoice].Index
	selectWidget := widget.NewSelect(options, func(value string) {
		for i, opt := range options {
			if opt == value {
				selectedCol = choices[i].Index
				return
			}
		}
	})
	selectWidget.SetSelected(options[defaultChoice])
	content := container.NewVBox(widget.NewLabel("유해인자 열을 선택하세요"), selectWidget)
	dialog.NewCustomConfirm("열 선택", "불러오기", "취소", content, func(ok bool) {
		if !ok {
			return
		}
		apply(flowrec.ExtractColumn(records, selectedCol, hasHeader))
	}, win).Show()
}

func showFatalError(win fyne.Window, err error) {
	win.SetContent(widget.NewLabel(err.Error()))
	dialog.ShowError(err, win)
	win.ShowAndRun()
}

func showError(win fyne.Window, err error) {
	if err != nil {
		dialog.ShowError(err, win)
	}
}

func buildTableData(rows []flowrec.ResultRow) [][]string {
	data := make([][]string, 1, len(rows)+1)
	data[0] = append([]string(nil), flowrec.ResultHeader...)
	for _, row := range rows {
		cells := row.Cells()
		cells[0] = truncateText(cells[0], 60)
		data = append(data, cells)
	}
	return data
}

func countMissing(rows []flowrec.ResultRow) int {
	n := 0
	for _, r := range rows {
		if !r.Found() {
			n++
		}
	}
	return n
}

func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

// logCapture keeps the most recent log lines for the log pane.
type logCapture struct {
	mu      sync.Mutex
	lines   []string
	limit   int
	binding binding.String
}

func newLogCapture(b binding.String, limit int) *logCapture {
	return &logCapture{binding: b, limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	for _, part := range strings.Split(text, "\n") {
		if part == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	_ = l.binding.Set(strings.Join(l.lines, "\n"))
	return len(p), nil
}
