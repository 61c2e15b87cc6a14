// FILE: lixenwraith/logfile/cmd/logfile/files.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/logfile"
)

func newListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the log files and archives of the configured logger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.newLogger()
			if err != nil {
				return err
			}
			defer logger.Shutdown()

			files, err := logger.ListLogFiles()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDATE\tSEQ\tARCHIVE\tSIZE")
			for _, f := range files {
				size := "-"
				if fi, err := os.Stat(f.Path); err == nil {
					size = fmt.Sprintf("%d", fi.Size())
				}
				archive := f.Suffix
				if archive == "" {
					archive = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", f.Name, f.Date.Format("2006-01-02"), f.Seq, archive, size)
			}
			return tw.Flush()
		},
	}
}

func newCompressCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compress",
		Short: "Compress every uncompressed log file once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, flags, "compressed", func(ctx context.Context, l *logfile.Logger) (int, error) {
				return l.CompressNow(ctx)
			})
		},
	}
}

func newSweepCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete log files older than the retention window once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, flags, "deleted", func(ctx context.Context, l *logfile.Logger) (int, error) {
				return l.SweepNow(ctx)
			})
		},
	}
}

func newDeleteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete FILE...",
		Short: "Delete log files by base name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.newLogger()
			if err != nil {
				return err
			}
			defer logger.Shutdown()

			var failed int
			for _, name := range args {
				if err := logger.DeleteLogFile(name); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files not deleted", failed, len(args))
			}
			return nil
		},
	}
}

// runPass runs one maintenance pass, printing each file event as it happens
func runPass(cmd *cobra.Command, flags *globalFlags, verb string, pass func(context.Context, *logfile.Logger) (int, error)) error {
	logger, err := flags.newLogger()
	if err != nil {
		return err
	}
	defer logger.Shutdown()

	out := cmd.OutOrStdout()
	logger.AddEventHandler(&logfile.EventHandlerFuncs{
		Compressed: func(e logfile.Event) { fmt.Fprintf(out, "compressed %s\n", e.Path) },
		Deleted:    func(e logfile.Event) { fmt.Fprintf(out, "deleted %s\n", e.Path) },
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := pass(ctx, logger)
	fmt.Fprintf(out, "%d files %s\n", n, verb)
	return err
}
