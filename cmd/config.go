package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/analyzer"
	"github.com/moratsam/sbox-analysis/pu"
	vl "github.com/moratsam/sbox-analysis/pu/vanilla"
	"github.com/moratsam/sbox-analysis/store"
	u "github.com/moratsam/sbox-analysis/util"
)

const envPrefix = "SBOXA"

// Reads the config file and environment into v. A missing default config
// file is not an error, an explicit one is.
func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigName(".sboxa")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && xerrors.As(err, &notFound) {
			return nil
		}
		return u.WrapErr("read config", err)
	}
	return nil
}

func setupLogging(v *viper.Viper, cmd *cobra.Command) error {
	lvl, err := log.LvlFromString(v.GetString("log-level"))
	if err != nil {
		return u.WrapErr("log level", err)
	}

	var format log.Format
	switch v.GetString("log-format") {
	case "terminal":
		format = log.TerminalFormat()
	case "json":
		format = log.JsonFormat()
	case "logfmt":
		format = log.LogfmtFormat()
	default:
		return xerrors.Errorf("unknown log format %q", v.GetString("log-format"))
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(cmd.ErrOrStderr(), format)))
	return nil
}

// Returns the processing unit selected by "proc" and a func releasing it.
func getPU(v *viper.Viper) (pu.PU, func(), error) {
	switch v.GetString("proc") {
	case "vanilla":
		return vl.NewVanillaPU(v.GetInt("workers")), func() {}, nil
	case "opencl":
		return newOpenCLPU()
	default:
		return nil, nil, xerrors.Errorf("wrong processor selection %q", v.GetString("proc"))
	}
}

func analyzerOptions(p pu.PU) []analyzer.Option {
	return []analyzer.Option{analyzer.WithPU(p), analyzer.WithLogger(log.New("module", "analyzer"))}
}

// Opens the report store if one is configured. The returned store is nil
// otherwise.
func openStore(v *viper.Viper, readOnly bool) (*store.Store, error) {
	path := v.GetString("store")
	if path == "" {
		return nil, nil
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return store.Open(path, store.Options{ReadOnly: readOnly})
}
