package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/feerecon/internal/logging"
	"github.com/cleared-dev/feerecon/internal/rates"
)

func newRatesCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "rates [directory]",
		Short: "Show the commission rates a run would use",
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
			log := logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			rt := rates.Load(inDir(dir, cfg.Rates.File), rateHeaders(cfg), log)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s\n", rt.Source())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tRATE")
			for _, code := range rt.Codes() {
				fmt.Fprintf(tw, "%s\t%s\n", code, rt.Rate(code).String())
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default <directory>/feerecon.yaml)")

	return cmd
}
