package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteSimpleCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	path, err := w.WriteSimpleCSV("views/top.csv", []string{"label", "value"}, [][]string{
		{"Pizza Hut", "500"},
		{"Dosa, Idli & Co", "120.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "views", "top.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	assert.Equal(t, [][]string{
		{"label", "value"},
		{"Pizza Hut", "500"},
		{"Dosa, Idli & Co", "120.5"},
	}, readCSV(t, path))
}

func TestWriteCSV_AbsolutePathIgnoresBase(t *testing.T) {
	other := filepath.Join(t.TempDir(), "out.csv")
	w := NewCSVWriter(t.TempDir(), nil)

	path, err := w.WriteCSV(other, WriteOptions{Headers: []string{"h"}})
	require.NoError(t, err)
	assert.Equal(t, other, path)
	assert.FileExists(t, other)
}

func TestWriteCSV_DirectoryConflict(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocker"), []byte("x"), 0644))

	_, err := NewCSVWriter(dir, nil).WriteSimpleCSV("blocker/a.csv", nil, nil)
	assert.Error(t, err)
}

func TestWriteCSV_ReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	_, err := w.WriteSimpleCSV("daily_sales.csv", []string{"date", "value"}, [][]string{{"2024-01-01", "10"}, {"2024-01-02", "12"}})
	require.NoError(t, err)
	path, err := w.WriteSimpleCSV("daily_sales.csv", []string{"date", "value"}, [][]string{{"2024-02-01", "3"}})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"date", "value"}, {"2024-02-01", "3"}}, readCSV(t, path))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "daily_sales.csv", entries[0].Name())
}
