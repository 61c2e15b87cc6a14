// FILE: lixenwraith/logfile/cmd/logfile/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/logfile"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
	overrides  []string
	directory  string
	name       string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand assembles the command tree around one set of global flags
func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "logfile",
		Short: "Log file lifecycle tool",
		Long: "logfile writes, rotates, compresses and expires log files.\n" +
			"Subcommands operate on the directory and name resolved from the configuration.",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "TOML file with a [logfile] table")
	pf.StringArrayVar(&flags.overrides, "set", nil, "configuration override as key=value (repeatable)")
	pf.StringVarP(&flags.directory, "dir", "d", "", "log directory (overrides configuration)")
	pf.StringVarP(&flags.name, "name", "n", "", "file name prefix (overrides configuration)")

	rootCmd.AddCommand(
		newStressCommand(flags),
		newListCommand(flags),
		newCompressCommand(flags),
		newSweepCommand(flags),
		newDeleteCommand(flags),
	)
	return rootCmd
}

// loadConfig resolves the file, the --set overrides and the shorthand flags, in that order
func (f *globalFlags) loadConfig() (*logfile.Config, error) {
	cfg := logfile.DefaultConfig()
	if f.configFile != "" {
		loaded, err := logfile.NewConfigFromFile(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := append([]string(nil), f.overrides...)
	if f.directory != "" {
		overrides = append(overrides, "directory="+f.directory)
	}
	if f.name != "" {
		overrides = append(overrides, "name="+f.name)
	}

	if err := cfg.ApplyOverride(overrides...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds a configured but not started logger
func (f *globalFlags) newLogger(opts ...logfile.Option) (*logfile.Logger, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logfile.NewLogger(append([]logfile.Option{
		logfile.WithErrorHandler(func(operation string, err error) {
			fmt.Fprintf(os.Stderr, "[%s] %v\n", operation, err)
		}),
	}, opts...)...)

	if err := logger.ApplyConfig(cfg); err != nil {
		_ = logger.Shutdown()
		return nil, err
	}
	return logger, nil
}
