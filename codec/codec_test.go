package codec

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/moratsam/sbox-analysis/analyzer"
	"github.com/moratsam/sbox-analysis/tables"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0x63", 0x63, true},
		{"0XFF", 0xff, true},
		{"7c", 0x7c, true},
		{"10", 0x10, true}, // Two-character tokens are hex.
		{"255", 255, true},
		{" 16 ", 0x16, true},
		{"", 0, false},
		{"sbox", 0, false},
		{"0xzz", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseValue(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTableRoundTrip(t *testing.T) {
	aes := Table{Name: "AES", Values: tables.AES()}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, format := range []Format{FormatCSV, FormatJSON, FormatHex} {
		t.Run(string(format), func(t *testing.T) {
			data, err := EncodeTable(aes, format, now)
			require.NoError(t, err)
			got, err := Decode(data, format, "")
			require.NoError(t, err)
			require.Equal(t, aes.Values, got.Values)
		})
	}
}

func TestEncodeTableCSVGrid(t *testing.T) {
	data, err := EncodeTable(Table{Values: tables.AES()}, FormatCSV, time.Now())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 16)
	require.True(t, strings.HasPrefix(lines[0], "63,7C,77,7B"))
	require.True(t, strings.HasSuffix(lines[15], "BB,16"))
}

func TestEncodeTableJSON(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := EncodeTable(Table{Values: tables.Identity()}, FormatJSON, now)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "Exported S-Box", doc["name"])
	require.Equal(t, "decimal", doc["format"])
	require.Equal(t, "2024-01-02T03:04:05Z", doc["exported"])
	require.EqualValues(t, 256, doc["size"])
}

func TestParseJSON(t *testing.T) {
	t.Run("named object", func(t *testing.T) {
		data, _ := json.Marshal(map[string]interface{}{"name": "AES", "sbox": tables.AES()})
		tbl, err := ParseJSON(data, "")
		require.NoError(t, err)
		require.Equal(t, "AES", tbl.Name)
		require.Equal(t, tables.AES(), tbl.Values)
	})
	t.Run("nested path", func(t *testing.T) {
		data, _ := json.Marshal(map[string]interface{}{"cipher": map[string]interface{}{"table": tables.Identity()}})
		tbl, err := ParseJSON(data, "cipher.table")
		require.NoError(t, err)
		require.Equal(t, tables.Identity(), tbl.Values)
	})
	t.Run("bare array of hex strings", func(t *testing.T) {
		cells := make([]string, 256)
		for i, v := range tables.AES() {
			cells[i] = "0x" + strings.ToUpper(strings.TrimPrefix(hex2(v), "0x"))
		}
		data, _ := json.Marshal(cells)
		tbl, err := ParseJSON(data, "")
		require.NoError(t, err)
		require.Equal(t, tables.AES(), tbl.Values)
	})
	t.Run("missing array", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"name":"x"}`), "")
		require.Error(t, err)
	})
	t.Run("fractional value", func(t *testing.T) {
		vals := make([]float64, 256)
		vals[3] = 1.5
		data, _ := json.Marshal(map[string]interface{}{"sbox": vals})
		_, err := ParseJSON(data, "")
		require.ErrorContains(t, err, "position 3")
	})
	t.Run("invalid document", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"sbox": [1, 2`), "")
		require.Error(t, err)
	})
}

func hex2(v int) string {
	const digits = "0123456789abcdef"
	return "0x" + string(digits[v>>4]) + string(digits[v&15])
}

func TestValidate(t *testing.T) {
	require.ErrorContains(t, Validate(make([]int, 255)), "expected 256 values, found 255")
	vals := make([]int, 256)
	vals[9] = 300
	require.ErrorContains(t, Validate(vals), "position 9")
	require.NoError(t, Validate(make([]int, 256)))
}

func TestParseCSVSkipsLabels(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("row,values\n")
	for row := 0; row < 16; row++ {
		sb.WriteString("r")
		for col := 0; col < 16; col++ {
			sb.WriteString(", 0x")
			sb.WriteString(strings.TrimPrefix(hex2(row*16+col), "0x"))
		}
		sb.WriteString("\r\n")
	}
	values, err := ParseCSV([]byte(sb.String()))
	require.NoError(t, err)
	require.Equal(t, tables.Identity(), values)
}

func TestParseHexRejectsWideTokens(t *testing.T) {
	_, err := ParseHex([]byte("63 7c 1ff"))
	require.ErrorContains(t, err, "token 2")
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("/tmp/box.CSV")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)
	f, err = FormatFromPath("box.txt")
	require.NoError(t, err)
	require.Equal(t, FormatHex, f)
	_, err = FormatFromPath("box.xlsx")
	require.True(t, xerrors.Is(err, ErrUnknownFormat))
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aes.hex")
	data, err := EncodeTable(Table{Values: tables.AES()}, FormatHex, time.Now())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	tbl, err := ReadTable(path, "")
	require.NoError(t, err)
	require.Equal(t, "aes", tbl.Name)
	require.Equal(t, tables.AES(), tbl.Values)

	bad := filepath.Join(dir, "short.csv")
	require.NoError(t, os.WriteFile(bad, []byte("1,2,3"), 0o644))
	_, err = ReadTable(bad, "")
	require.ErrorContains(t, err, "short.csv")
}

func TestCheckPermutation(t *testing.T) {
	pc := CheckPermutation(tables.AES())
	require.True(t, pc.IsPermutation)
	require.Empty(t, pc.Missing)
	require.Empty(t, pc.Duplicates)
	require.Equal(t, 0, pc.Min)
	require.Equal(t, 255, pc.Max)
	require.Equal(t, 256, pc.Unique)

	vals := tables.Identity()
	vals[1] = 0
	vals[2] = 0
	pc = CheckPermutation(vals)
	require.False(t, pc.IsPermutation)
	require.Equal(t, []int{1, 2}, pc.Missing)
	require.Equal(t, []Duplicate{{Value: 0, Count: 3}}, pc.Duplicates)
	require.Equal(t, 256, pc.Size)
	require.Equal(t, 254, pc.Unique)
	require.Equal(t, 0, pc.Min)
	require.Equal(t, 255, pc.Max)

	pc = CheckPermutation([]int{7, 300, 7, -1})
	require.False(t, pc.IsPermutation)
	require.Equal(t, -1, pc.Min)
	require.Equal(t, 300, pc.Max)
	require.Equal(t, 3, pc.Unique)
	require.Equal(t, []Duplicate{{Value: 7, Count: 2}}, pc.Duplicates)

	pc = CheckPermutation(nil)
	require.Equal(t, 0, pc.Unique)
	require.Len(t, pc.Missing, 256)
}

func TestEncodeAnalysis(t *testing.T) {
	a, err := analyzer.New(tables.AES())
	require.NoError(t, err)
	r, err := a.RunFullAnalysis(context.Background())
	require.NoError(t, err)

	data, err := EncodeAnalysis(tables.AES(), r, ExportOptions{Format: "json"})
	require.NoError(t, err)
	var doc AnalysisExport
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, 112, doc.Analysis.Nonlinearity)
	require.Nil(t, doc.Analysis.DAP.Table)
	require.Equal(t, analyzer.SecurityMedium, doc.Summary.SecurityLevel)
	require.Len(t, doc.SBox, 256)
	// The caller's report keeps its table.
	require.NotNil(t, r.DAP.Table)

	data, err = EncodeAnalysis(tables.AES(), r, ExportOptions{Format: "json", WithDDT: true})
	require.NoError(t, err)
	doc = AnalysisExport{}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NotNil(t, doc.Analysis.DAP.Table)
	require.Equal(t, 256, doc.Analysis.DAP.Table[0][0])

	data, err = EncodeAnalysis(tables.AES(), r, ExportOptions{Format: "yaml"})
	require.NoError(t, err)
	var y map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &y))
	analysis := y["analysis"].(map[string]interface{})
	require.Equal(t, 112, analysis["nonlinearity"])

	_, err = EncodeAnalysis(tables.AES(), r, ExportOptions{Format: "xml"})
	require.True(t, xerrors.Is(err, ErrUnknownFormat))
}
