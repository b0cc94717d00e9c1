package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/moratsam/sbox-analysis/analyzer"
)

type tableExport struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Format   string `json:"format"`
	Exported string `json:"exported"`
	SBox     []int  `json:"sbox"`
}

// EncodeTable writes t as a 16x16 upper-case hex CSV grid, a JSON document
// readable by ParseJSON, or space separated upper-case hex.
func EncodeTable(t Table, format Format, now time.Time) ([]byte, error) {
	if err := Validate(t.Values); err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		var sb strings.Builder
		for row := 0; row < 16; row++ {
			cells := make([]string, 16)
			for col := range cells {
				cells[col] = fmt.Sprintf("%02X", t.Values[row*16+col])
			}
			sb.WriteString(strings.Join(cells, ","))
			sb.WriteByte('\n')
		}
		return []byte(sb.String()), nil

	case FormatJSON:
		name := t.Name
		if name == "" {
			name = "Exported S-Box"
		}
		return json.MarshalIndent(tableExport{
			Name:     name,
			Size:     TableSize,
			Format:   "decimal",
			Exported: now.UTC().Format(time.RFC3339),
			SBox:     t.Values,
		}, "", "  ")

	case FormatHex:
		cells := make([]string, len(t.Values))
		for i, v := range t.Values {
			cells[i] = fmt.Sprintf("%02X", v)
		}
		return []byte(strings.Join(cells, " ")), nil
	}
	return nil, xerrors.Errorf("%q: %w", format, ErrUnknownFormat)
}

// AnalysisExport is the document written for a finished analysis.
type AnalysisExport struct {
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	SBox      []int            `json:"sbox" yaml:"sbox"`
	Analysis  *analyzer.Report `json:"analysis" yaml:"analysis"`
	Summary   analyzer.Summary `json:"summary" yaml:"summary"`
}

type ExportOptions struct {
	Format  string // json or yaml
	WithDDT bool   // Keep the 256x256 difference table.
}

func EncodeAnalysis(values []int, r *analyzer.Report, opts ExportOptions) ([]byte, error) {
	report := *r
	if !opts.WithDDT {
		report.DAP.Table = nil
	}
	doc := AnalysisExport{
		Timestamp: r.Timestamp,
		SBox:      values,
		Analysis:  &report,
		Summary:   r.Summary,
	}

	switch strings.ToLower(opts.Format) {
	case "", "json":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(doc)
	}
	return nil, xerrors.Errorf("%q: %w", opts.Format, ErrUnknownFormat)
}
