package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/feerecon/internal/model"
	"github.com/cleared-dev/feerecon/internal/runlog"
)

func newHistoryCommand() *cobra.Command {
	var configPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "history [directory]",
		Short: "Show past reconciliation runs from the run log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(dir, configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Output.RunLog == "" {
				fmt.Fprintln(out, "Run log is disabled")
				return nil
			}
			entries, err := runlog.Read(inDir(dir, cfg.Output.RunLog))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tFILES\tFAILED\tDISCREPANCIES\tWARNINGS\tDURATION\tREPORT")
			for _, e := range entries {
				report := e.Report
				if report == "" {
					report = "-"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
					e.Timestamp.Format(model.TimestampFormat),
					e.Files, e.Failed, e.Discrepancies, e.Warnings,
					e.Duration.Round(time.Millisecond), report)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default <directory>/feerecon.yaml)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "show only the last n runs (0 for all)")

	return cmd
}
