// Package codec reads and writes substitution tables and analysis results.
package codec

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/io"
	u "github.com/moratsam/sbox-analysis/util"
)

const TableSize = 256

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHex  Format = "hex"
)

// DefaultJSONPath is where the table sits in exported JSON files.
const DefaultJSONPath = "sbox"

var ErrUnknownFormat = xerrors.New("unknown table format")

// Table is a named list of table values as read from a file.
type Table struct {
	Name   string
	Values []int
}

// ParseFormat accepts csv, json and hex (txt is an alias of hex).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "hex", "txt":
		return FormatHex, nil
	}
	return "", xerrors.Errorf("%q: %w", s, ErrUnknownFormat)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return ParseFormat(ext)
}

// ReadTable reads and decodes the table at path. jsonPath is only used for
// JSON files; empty means DefaultJSONPath.
func ReadTable(path, jsonPath string) (Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Table{}, err
	}
	data, err := io.ReadFile(path)
	if err != nil {
		return Table{}, u.WrapErr("read table", err)
	}
	t, err := Decode(data, format, jsonPath)
	if err != nil {
		return Table{}, u.WrapErr(filepath.Base(path), err)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

func Decode(data []byte, format Format, jsonPath string) (Table, error) {
	switch format {
	case FormatCSV:
		values, err := ParseCSV(data)
		return Table{Values: values}, err
	case FormatJSON:
		return ParseJSON(data, jsonPath)
	case FormatHex:
		values, err := ParseHex(data)
		return Table{Values: values}, err
	}
	return Table{}, xerrors.Errorf("%q: %w", format, ErrUnknownFormat)
}

// ParseValue reads one cell: 0x-prefixed hex, a hex token of at most two
// characters, or a decimal integer.
func ParseValue(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	var v int64
	var err error
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, err = strconv.ParseInt(lower[2:], 16, 64)
	case len(s) <= 2 && isHex(lower):
		v, err = strconv.ParseInt(lower, 16, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// ParseCSV reads comma separated cells row by row. Cells that are not numbers
// (headers, labels) are skipped.
func ParseCSV(data []byte) ([]int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, u.WrapErr("parse csv", err)
	}

	values := make([]int, 0, TableSize)
	for _, record := range records {
		for _, cell := range record {
			if v, ok := ParseValue(cell); ok {
				values = append(values, v)
			}
		}
	}
	return values, Validate(values)
}

// ParseJSON reads the array at the gjson path (DefaultJSONPath when empty) and
// an optional top-level name. Elements may be numbers or strings.
func ParseJSON(data []byte, path string) (Table, error) {
	if !gjson.ValidBytes(data) {
		return Table{}, xerrors.New("parse json: invalid document")
	}
	if path == "" {
		path = DefaultJSONPath
	}

	root := gjson.ParseBytes(data)
	arr := root
	if !root.IsArray() {
		arr = root.Get(path)
	}
	if !arr.IsArray() {
		return Table{}, xerrors.Errorf("parse json: no array at %q", path)
	}

	t := Table{Values: make([]int, 0, TableSize)}
	if root.IsObject() {
		t.Name = root.Get("name").String()
	}
	for i, el := range arr.Array() {
		switch el.Type {
		case gjson.Number:
			if el.Num != float64(int64(el.Num)) {
				return Table{}, xerrors.Errorf("parse json: position %d holds %v, not an integer", i, el.Num)
			}
			t.Values = append(t.Values, int(el.Int()))
		case gjson.String:
			v, ok := ParseValue(el.Str)
			if !ok {
				return Table{}, xerrors.Errorf("parse json: position %d holds %q", i, el.Str)
			}
			t.Values = append(t.Values, v)
		default:
			return Table{}, xerrors.Errorf("parse json: position %d holds %s", i, el.Raw)
		}
	}
	return t, Validate(t.Values)
}

// ParseHex reads whitespace separated hex bytes, with or without 0x.
func ParseHex(data []byte) ([]int, error) {
	fields := strings.Fields(string(data))
	values := make([]int, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(f), "0x"), 16, 8)
		if err != nil {
			return nil, xerrors.Errorf("parse hex: token %d %q is not a byte", i, f)
		}
		values = append(values, int(v))
	}
	return values, Validate(values)
}

// Validate checks the count and range of values. Duplicates are allowed; use
// CheckPermutation to find them.
func Validate(values []int) error {
	if len(values) != TableSize {
		return xerrors.Errorf("expected %d values, found %d", TableSize, len(values))
	}
	for i, v := range values {
		if v < 0 || v >= TableSize {
			return xerrors.Errorf("invalid value at position %d: %d, must be integer 0-255", i, v)
		}
	}
	return nil
}
