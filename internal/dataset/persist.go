package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "foodpulse/internal/errors"
)

// DefaultSheet is the worksheet name written by the Persister.
const DefaultSheet = "Sheet1"

// dateTimeNumFmt is the built-in "m/d/yy h:mm" format, recognized as a date
// by the Loader.
const dateTimeNumFmt = 22

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Persister writes a Table back to an .xlsx workbook.
type Persister struct {
	logger *slog.Logger
	sheet  string
}

// NewPersister creates a persister. An empty sheet writes DefaultSheet.
func NewPersister(logger *slog.Logger, sheet string) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Persister{logger: logger, sheet: sheet}
}

// Save writes t to path with DefaultSheet.
func Save(ctx context.Context, t *Table, path string) error {
	return NewPersister(nil, "").Save(ctx, t, path)
}

// Save writes the header and every row to a temporary workbook in the
// destination directory and renames it over path. The previous file at path
// stays untouched unless the whole write succeeds, and its permissions carry
// over to the new one. A new file gets 0644.
func (p *Persister) Save(ctx context.Context, t *Table, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewWriteError("failed to create output directory", err).WithContext("path", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewWriteError("failed to create temporary file", err).WithContext("path", path)
	}
	tmpPath := tmp.Name()
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if err := p.write(ctx, t, tmp); err != nil {
		tmp.Close()
		return apperrors.NewWriteError("failed to write workbook", err).WithContext("path", path)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return apperrors.NewWriteError("failed to set workbook permissions", err).WithContext("path", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewWriteError("failed to flush workbook", err).WithContext("path", path)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewWriteError("failed to close workbook", err).WithContext("path", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return apperrors.NewWriteError("failed to replace destination", err).WithContext("path", path)
	}
	committed = true

	p.logger.InfoContext(ctx, "workbook saved",
		slog.String("path", path),
		slog.String("sheet", p.sheet),
		slog.Int("rows", t.Len()))
	return nil
}

func (p *Persister) write(ctx context.Context, t *Table, out *os.File) error {
	f := excelize.NewFile()
	defer f.Close()

	if p.sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, p.sheet); err != nil {
			return err
		}
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: dateTimeNumFmt})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(p.sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(p.sheet, axis, &cells); err != nil {
			return err
		}
		for j, v := range row {
			if v.Kind() != KindTime {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(p.sheet, cell, cell, dateStyle); err != nil {
				return err
			}
		}
	}

	_, err = f.WriteTo(out)
	return err
}

// cellValue maps a cell onto the value excelize stores. Strings go to the
// shared string table so numeric-looking text reloads as text.
func cellValue(v Value) interface{} {
	switch v.Kind() {
	case KindString:
		s, _ := v.Text()
		return s
	case KindNumber:
		n, _ := v.Float()
		return n
	case KindTime:
		t, _ := v.Time()
		return excelSerial(t)
	default:
		return nil
	}
}

// excelSerial converts t to an Excel 1900-system serial date. Reloading
// rounds to whole seconds.
func excelSerial(t time.Time) float64 {
	return float64(t.UTC().Sub(excelEpoch)) / float64(24*time.Hour)
}
