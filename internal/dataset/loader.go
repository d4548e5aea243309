package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "foodpulse/internal/errors"
)

// Loader reads an order workbook into a Table.
type Loader struct {
	logger *slog.Logger
	sheet  string
}

// NewLoader creates a loader. An empty sheet selects the first worksheet.
func NewLoader(logger *slog.Logger, sheet string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, sheet: sheet}
}

// Load reads the first worksheet of the workbook at path.
func Load(ctx context.Context, path string) (*Table, error) {
	return NewLoader(nil, "").Load(ctx, path)
}

// Load reads the workbook at path. The first non-empty row is the header;
// every following non-empty row becomes a data row padded to the header
// width. No cleaning is applied.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewLoadError("cannot access input workbook", err).WithContext("path", path)
	}
	if info.IsDir() {
		return nil, apperrors.NewLoadError("input path is a directory", nil).WithContext("path", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewLoadError("not a valid spreadsheet", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewLoadError("workbook has no worksheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewLoadError(fmt.Sprintf("failed to read sheet %q", sheet), err).WithContext("path", path)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	r := &sheetReader{
		file:       f,
		sheet:      sheet,
		date1904:   date1904,
		dateStyles: make(map[int]bool),
	}

	headerRow := -1
	width := 0
	for i, row := range rows {
		if headerRow < 0 && !isBlank(row) {
			headerRow = i
		}
		if len(row) > width {
			width = len(row)
		}
	}
	if headerRow < 0 {
		l.logger.WarnContext(ctx, "workbook is empty", slog.String("path", path), slog.String("sheet", sheet))
		return New(), nil
	}

	t := New(headerNames(rows[headerRow], width)...)
	for i := headerRow + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlank(rows[i]) {
			continue
		}
		values := make([]Value, width)
		for j, raw := range rows[i] {
			v, err := r.cell(raw, j+1, i+1)
			if err != nil {
				return nil, apperrors.NewLoadError("failed to read cell", err).
					WithContext("path", path).
					WithContext("row", i+1).
					WithContext("column", j+1)
			}
			values[j] = v
		}
		t.Rows = append(t.Rows, values)
	}

	l.logger.InfoContext(ctx, "workbook loaded",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("columns", len(t.Columns)),
		slog.Int("rows", t.Len()))

	return t, nil
}

type sheetReader struct {
	file       *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

// missingMarkers are the cell texts read as missing, the same set pandas
// treats as NA by default.
var missingMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// isMissingMarker reports whether text reads as a missing cell.
func isMissingMarker(text string) bool {
	_, ok := missingMarkers[text]
	return ok
}

// cell types a raw cell value. col and row are 1-based sheet coordinates.
// Missing markers and error cells such as #DIV/0! load as null.
func (r *sheetReader) cell(raw string, col, row int) (Value, error) {
	if isMissingMarker(raw) {
		return Null(), nil
	}
	f, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil && !strings.HasPrefix(raw, "#") {
		return Str(raw), nil
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Value{}, err
	}
	cellType, err := r.file.GetCellType(r.sheet, name)
	if err != nil {
		return Value{}, err
	}
	if cellType == excelize.CellTypeError {
		return Null(), nil
	}
	if parseErr != nil {
		return Str(raw), nil
	}
	if cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
		return Str(raw), nil
	}

	isDate, err := r.isDateCell(name)
	if err != nil {
		return Value{}, err
	}
	if isDate {
		t, err := excelize.ExcelDateToTime(f, r.date1904)
		if err != nil {
			return Num(f), nil
		}
		return Timestamp(t), nil
	}
	return Num(f), nil
}

func (r *sheetReader) isDateCell(name string) (bool, error) {
	styleID, err := r.file.GetCellStyle(r.sheet, name)
	if err != nil {
		return false, err
	}
	if isDate, ok := r.dateStyles[styleID]; ok {
		return isDate, nil
	}
	isDate := false
	if style, err := r.file.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	r.dateStyles[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt recognizes the built-in date/time formats and custom format
// codes carrying date or time tokens.
func isDateNumFmt(id int, custom *string) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	if custom == nil {
		return false
	}
	code := strings.ToLower(stripFormatLiterals(*custom))
	return strings.ContainsAny(code, "yd") || strings.Contains(code, "h")
}

// stripFormatLiterals removes quoted text, escaped characters and bracketed
// sections such as colors or locales from a number format code.
func stripFormatLiterals(code string) string {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, c := range code {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case inQuote:
			inQuote = c != '"'
		case c == '"':
			inQuote = true
		case inBracket:
			inBracket = c != ']'
		case c == '[':
			inBracket = true
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// headerNames pads the header to width, naming blank headers "Unnamed: N"
// and suffixing repeated names with ".k".
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
