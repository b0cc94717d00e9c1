package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/analyzer"
	"github.com/moratsam/sbox-analysis/batch"
	"github.com/moratsam/sbox-analysis/codec"
	"github.com/moratsam/sbox-analysis/io"
	"github.com/moratsam/sbox-analysis/store"
	"github.com/moratsam/sbox-analysis/tables"
)

func newRootCmd() *cobra.Command {
	var (
		v         = viper.New()
		cfg_file  string
		builtin   string
		out_file  string
		with_ddt  bool
		export_as string
	)

	root_cmd := &cobra.Command{
		Use:   "sboxa",
		Short: "Measure the cryptographic strength of 8-bit S-boxes.",
		Long: `sboxa computes nonlinearity, avalanche, bit independence, linear and
differential probabilities, algebraic degree, transparency order and
correlation immunity of a 256 entry substitution table.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(v, cfg_file); err != nil {
				return err
			}
			return setupLogging(v, cmd)
		},
	}

	cmd_analyze := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run the full analysis of a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTable(args, builtin, v.GetString("json-path"))
			if err != nil {
				return err
			}

			s, err := openStore(v, false)
			if err != nil {
				return err
			}
			if s != nil {
				defer s.Close()
			}

			report, err := analyzeTable(cmd.Context(), v, s, t)
			if err != nil {
				return err
			}
			data, err := codec.EncodeAnalysis(t.Values, report, codec.ExportOptions{
				Format:  v.GetString("format"),
				WithDDT: with_ddt,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, out_file, data)
		},
	}

	cmd_check := &cobra.Command{
		Use:   "check file",
		Short: "Check whether a table is a permutation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := codec.ReadTable(args[0], v.GetString("json-path"))
			if err != nil {
				return err
			}
			pc := codec.CheckPermutation(t.Values)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "name:        %s\n", t.Name)
			fmt.Fprintf(w, "size:        %d\n", pc.Size)
			fmt.Fprintf(w, "range:       %d-%d\n", pc.Min, pc.Max)
			fmt.Fprintf(w, "unique:      %d\n", pc.Unique)
			fmt.Fprintf(w, "permutation: %t\n", pc.IsPermutation)
			if len(pc.Missing) > 0 {
				fmt.Fprintf(w, "missing:     %v\n", pc.Missing)
			}
			for _, d := range pc.Duplicates {
				fmt.Fprintf(w, "duplicate:   %d (x%d)\n", d.Value, d.Count)
			}
			return nil
		},
	}

	cmd_export := &cobra.Command{
		Use:   "export file",
		Short: "Convert a table to csv, json or hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := codec.ReadTable(args[0], v.GetString("json-path"))
			if err != nil {
				return err
			}
			format, err := codec.ParseFormat(export_as)
			if err != nil {
				return err
			}
			data, err := codec.EncodeTable(t, format, time.Now())
			if err != nil {
				return err
			}
			return writeOutput(cmd, out_file, data)
		},
	}

	cmd_batch := &cobra.Command{
		Use:   "batch files...",
		Short: "Analyse many tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(v, false)
			if err != nil {
				return err
			}
			if s != nil {
				defer s.Close()
			}
			p, release, err := getPU(v)
			if err != nil {
				return err
			}
			defer release()

			results, err := batch.Run(cmd.Context(), args, batch.Config{
				Workers:         v.GetInt("workers"),
				JSONPath:        v.GetString("json-path"),
				Store:           s,
				AnalyzerOptions: analyzerOptions(p),
			})
			if err != nil {
				return err
			}

			failed := 0
			w := cmd.OutOrStdout()
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(w, "%s\terror: %v\n", res.Path, res.Err)
					continue
				}
				r := res.Report
				fmt.Fprintf(w, "%s\t%s\tNL=%d DU=%d AD=%d TO=%.4f\n",
					res.Path, r.Summary.SecurityLevel, r.Nonlinearity,
					r.DifferentialUniformity, r.AlgebraicDegree, r.TransparencyOrder)
			}
			if failed > 0 {
				return xerrors.Errorf("%d of %d tables failed", failed, len(results))
			}
			return nil
		},
	}

	cmd_show := &cobra.Command{
		Use:   "show [fingerprint|id]",
		Short: "List stored analyses or print one of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(v, true)
			if err != nil {
				return err
			}
			if s == nil {
				return xerrors.New("no store configured (--store)")
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			if len(args) == 0 {
				entries, err := s.List()
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Fingerprint, e.ID,
						e.CreatedAt.Format(time.RFC3339), e.SecurityLevel, e.Name)
				}
				return nil
			}

			rec, err := lookupRecord(s, args[0])
			if err != nil {
				return err
			}
			data, err := codec.EncodeAnalysis(rec.SBox, rec.Report, codec.ExportOptions{
				Format:  v.GetString("format"),
				WithDDT: with_ddt,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, out_file, data)
		},
	}

	root_cmd.AddCommand(cmd_analyze, cmd_check, cmd_export, cmd_batch, cmd_show)

	// Cmd Root
	pf := root_cmd.PersistentFlags()
	pf.StringVar(&cfg_file, "config", "", "Config file (default $HOME/.sboxa.yaml)")
	pf.StringP("proc", "p", "vanilla", "Processor computing component spectra ({\"vanilla\",\"opencl\"})")
	pf.IntP("workers", "w", 0, "Worker count of the vanilla processor and of batch stages (0: one per CPU)")
	pf.String("store", "", "Directory of the report store; empty disables it")
	pf.StringP("format", "f", "json", "Report format ({\"json\",\"yaml\"})")
	pf.String("log-level", "info", "Log level ({\"crit\",\"error\",\"warn\",\"info\",\"debug\",\"trace\"})")
	pf.String("log-format", "terminal", "Log format ({\"terminal\",\"json\",\"logfmt\"})")
	pf.String("json-path", codec.DefaultJSONPath, "Path of the table inside JSON input files")
	pf.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			v.BindPFlag(f.Name, f)
		}
	})

	// Cmd Analyze
	cmd_analyze.Flags().StringVarP(&builtin, "builtin", "b", "", "Analyse a reference table ({\"aes\",\"identity\"})")
	cmd_analyze.Flags().StringVarP(&out_file, "output", "o", "", "Output file (default stdout)")
	cmd_analyze.Flags().BoolVar(&with_ddt, "with-ddt", false, "Include the difference distribution table")

	// Cmd Export
	cmd_export.Flags().StringVar(&export_as, "as", "hex", "Target format ({\"csv\",\"json\",\"hex\"})")
	cmd_export.Flags().StringVarP(&out_file, "output", "o", "", "Output file (default stdout)")

	// Cmd Show
	cmd_show.Flags().StringVarP(&out_file, "output", "o", "", "Output file (default stdout)")
	cmd_show.Flags().BoolVar(&with_ddt, "with-ddt", false, "Include the difference distribution table")

	return root_cmd
}

// Resolves the table from either a file argument or a builtin name.
func loadTable(args []string, builtin, jsonPath string) (codec.Table, error) {
	switch {
	case builtin != "" && len(args) > 0:
		return codec.Table{}, xerrors.New("give either a file or --builtin, not both")
	case builtin != "":
		values, ok := tables.Builtin(builtin)
		if !ok {
			return codec.Table{}, xerrors.Errorf("unknown builtin table %q", builtin)
		}
		return codec.Table{Name: builtin, Values: values}, nil
	case len(args) == 1:
		return codec.ReadTable(args[0], jsonPath)
	default:
		return codec.Table{}, xerrors.New("no table given")
	}
}

// Reuses the stored report of t when there is one, otherwise analyses t and
// stores the result.
func analyzeTable(ctx context.Context, v *viper.Viper, s *store.Store, t codec.Table) (*analyzer.Report, error) {
	logger := log.New("module", "cmd")
	if s != nil {
		rec, err := s.Lookup(t.Values)
		if err == nil {
			logger.Info("Using stored analysis", "fingerprint", rec.Fingerprint, "id", rec.ID)
			return rec.Report, nil
		}
		if !xerrors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	p, release, err := getPU(v)
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := analyzer.New(t.Values, analyzerOptions(p)...)
	if err != nil {
		return nil, err
	}
	report, err := a.RunFullAnalysis(ctx)
	if err != nil {
		return nil, err
	}

	if s != nil {
		if _, err := s.Put(t.Name, t.Values, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// Stored records are addressed by fingerprint or by run ID.
func lookupRecord(s *store.Store, key string) (store.Record, error) {
	if _, err := uuid.Parse(key); err == nil {
		return s.GetByID(key)
	}
	return s.Get(strings.ToLower(key))
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return io.WriteFile(path, data)
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
