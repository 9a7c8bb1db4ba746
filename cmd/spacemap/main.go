package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chan4lk/spacemap/internal/app"
	"github.com/chan4lk/spacemap/internal/config"
	"github.com/chan4lk/spacemap/internal/report"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	var configFile string

	cmd := &cobra.Command{
		Use:   "spacemap [path]",
		Short: "Interactive disk usage treemap for the terminal",
		Long: heredoc.Doc(`
			spacemap scans a directory tree and draws it as a treemap: every
			rectangle is a file or directory, sized by the bytes it occupies.

			Walk the map with the arrow keys or hjkl, drill into directories
			with enter, mark entries with space and delete them after a
			preview. Size filters and presets narrow the map to what matters.

			Settings come from a config file, SPACEMAP_* environment
			variables and flags, in that order of precedence.
		`),
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("stdout is not a terminal; use 'spacemap report' for plain output")
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Root = args[0]
			}
			return app.Run(cfg, configFile)
		},
	}

	defaultConfig, _ := config.DefaultPath()
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default "+defaultConfig+")")
	cobra.CheckErr(config.BindScanFlags(v, cmd.PersistentFlags()))
	cmd.AddCommand(newReportCommand(v, &configFile))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func newReportCommand(v *viper.Viper, configFile *string) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "report [path]",
		Short: "One-shot scan summary without the TUI",
		Long: heredoc.Doc(`
			report scans once and prints totals, the largest files and a
			per-extension breakdown. Default output is a table; --json emits
			the same data for scripts.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Root = args[0]
			}

			opts := report.Options{
				Path:             cfg.Root,
				TopN:             cfg.Report.Top,
				MinSize:          cfg.ReportMinBytes(),
				IncludeHidden:    cfg.IncludeHidden,
				MaxDepth:         cfg.MaxDepth,
				Extensions:       cfg.Report.Ext,
				ProgressInterval: report.DefaultProgressInterval,
			}

			var hook func(int64, uint64)
			showProgress := isatty.IsTerminal(os.Stderr.Fd())
			if showProgress {
				hook = func(entries int64, bytes uint64) {
					fmt.Fprintf(os.Stderr, "\r\033[K%d entries (%s)", entries, humanize.IBytes(bytes))
				}
			}

			stats, err := report.Run(cmd.Context(), opts, hook)
			if showProgress {
				fmt.Fprint(os.Stderr, "\r\033[K")
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return report.WriteJSON(os.Stdout, stats)
			}
			return report.WriteTable(os.Stdout, stats)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit JSON instead of a table")
	cobra.CheckErr(config.BindReportFlags(v, cmd.Flags()))
	return cmd
}
