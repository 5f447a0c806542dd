// Package ingest reads city spreadsheets (XLSX, CSV, TSV) into datasets.
package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Loader reads sources from the local filesystem.
type Loader struct{}

// NewLoader returns the filesystem-backed dataset loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ contract.DatasetLoader = (*Loader)(nil)

// Load reads and parses src. The digest covers the file bytes and every option
// that changes the resulting dataset.
func (l *Loader) Load(ctx context.Context, src contract.Source) (schema.Dataset, string, error) {
	if err := ctx.Err(); err != nil {
		return schema.Dataset{}, "", err
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return schema.Dataset{}, "", eris.Wrapf(err, "ingest: read %s", src.Path)
	}

	rows, err := ReadRows(filepath.Ext(src.Path), data, src.Sheet)
	if err != nil {
		return schema.Dataset{}, "", err
	}
	ds, err := Parse(rows)
	if err != nil {
		return schema.Dataset{}, "", eris.Wrapf(err, "ingest: parse %s", filepath.Base(src.Path))
	}
	if src.AnchorOrigin {
		if ds, err = WithOrigin(ds); err != nil {
			return schema.Dataset{}, "", err
		}
	}

	zap.L().Debug("dataset loaded",
		zap.String("source", src.Path),
		zap.Int("entities", len(ds.Entities)),
		zap.Int("criteria", ds.Layout.Len()))
	return ds, Digest(data, src), nil
}

// Fingerprint returns the digest Load would return without parsing the source.
func (l *Loader) Fingerprint(ctx context.Context, src contract.Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return "", eris.Wrapf(err, "ingest: read %s", src.Path)
	}
	return Digest(data, src), nil
}

// ReadRows dispatches on the file extension.
func ReadRows(ext string, data []byte, sheet string) ([][]string, error) {
	switch strings.ToLower(ext) {
	case ".xlsx":
		return ReadXLSXBytes(data, SheetOptions(sheet))
	case ".csv":
		return ReadCSV(bytes.NewReader(data), detectComma(data))
	case ".tsv":
		return ReadCSV(bytes.NewReader(data), '\t')
	default:
		return nil, eris.Errorf("ingest: unsupported format %q", ext)
	}
}

// SheetOptions maps a sheet selector to XLSXOptions: empty is the first sheet,
// a number is a 1-based index and anything else is a sheet name.
func SheetOptions(sheet string) XLSXOptions {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return XLSXOptions{}
	}
	if n, err := strconv.Atoi(sheet); err == nil && n > 0 {
		return XLSXOptions{SheetIndex: n - 1}
	}
	return XLSXOptions{SheetName: sheet}
}

// Digest identifies a dataset for caching.
func Digest(data []byte, src contract.Source) string {
	h := sha256.New()
	h.Write(data)
	_, _ = fmt.Fprintf(h, "|sheet=%s|anchor=%t", src.Sheet, src.AnchorOrigin)
	return hex.EncodeToString(h.Sum(nil))
}

// detectComma picks ';' for CSV exports from locales that use a decimal comma.
func detectComma(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
