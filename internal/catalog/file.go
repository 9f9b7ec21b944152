package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// ErrUnknownFormat is returned for catalog files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown catalog file format")

// TagSeparator joins tags in flat formats (CSV cells, SQL text columns).
const TagSeparator = "|"

func init() {
	Register("file", func(logger *slog.Logger) Loader { return &FileLoader{logger: logger} })
}

// FileLoader reads CSV, JSON and YAML catalog files.
//
// JSON and YAML files hold either a list of records or a mapping with a
// "products" list. CSV files carry a header row naming the fields; tags are
// joined with TagSeparator.
type FileLoader struct {
	logger *slog.Logger
}

// Load implements Loader.
func (l *FileLoader) Load(_ context.Context, cfg Config) ([]core.Product, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog path not specified")
	}
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	l.logger.Debug("reading catalog file", slog.String("path", cfg.Path), slog.Int("bytes", len(data)))
	return DecodeFile(cfg.Path, data)
}

// DecodeFile decodes catalog data using the format implied by path's extension.
func DecodeFile(path string, data []byte) ([]core.Product, error) {
	var (
		rows []map[string]any
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(bytes.NewReader(data))
	case ".json", ".yaml", ".yml":
		rows, err = readDocument(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return DecodeRecords(rows)
}

func readCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(rec) && rec[i] != "" {
				row[strings.TrimSpace(name)] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readDocument(data []byte) ([]map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog document: %w", err)
	}
	if m, ok := doc.(map[string]any); ok {
		doc = m["products"]
	}
	if doc == nil {
		return nil, nil
	}
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("catalog document must be a list of records or contain a products list")
	}
	rows := make([]map[string]any, 0, len(list))
	for i, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is not a mapping", i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DecodeRecords converts loosely typed rows into products. Numbers may be
// strings, tags may be a list or a TagSeparator-joined string and dates may be
// timestamps.
func DecodeRecords(rows []map[string]any) ([]core.Product, error) {
	out := make([]core.Product, 0, len(rows))
	for i, row := range rows {
		var p core.Product
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &p,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				timeToDateHook,
				mapstructure.StringToSliceHookFunc(TagSeparator),
				trimSliceHook,
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create decoder: %w", err)
		}
		if err := dec.Decode(row); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func timeToDateHook(from, to reflect.Type, data any) (any, error) {
	if t, ok := data.(time.Time); ok && to.Kind() == reflect.String {
		return t.UTC().Format(core.DateLayout), nil
	}
	return data, nil
}

func trimSliceHook(from, to reflect.Type, data any) (any, error) {
	parts, ok := data.([]string)
	if !ok {
		return data, nil
	}
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
