package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/feerecon/internal/discovery"
	"github.com/cleared-dev/feerecon/internal/fee"
	"github.com/cleared-dev/feerecon/internal/logging"
	"github.com/cleared-dev/feerecon/internal/rates"
	"github.com/cleared-dev/feerecon/internal/reconcile"
	"github.com/cleared-dev/feerecon/internal/runlog"
)

func newRunCommand() *cobra.Command {
	var configPath string
	var pause bool

	cmd := &cobra.Command{
		Use:   "run [directory]",
		Short: "Reconcile commissions in every partner file of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args)
			if err != nil {
				return err
			}
			err = runReconcile(cmd, dir, configPath)
			if pause {
				waitForEnter(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default <directory>/feerecon.yaml)")
	cmd.Flags().BoolVar(&pause, "pause", false, "wait for ENTER before exiting")

	return cmd
}

func runReconcile(cmd *cobra.Command, dir, configPath string) error {
	start := time.Now()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(dir, configPath)
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	rt := rates.Load(inDir(dir, cfg.Rates.File), rateHeaders(cfg), log)
	fmt.Fprintf(out, "Commission rates (%s): %s\n", rt.Source(), formatRates(rt))

	files, err := discovery.Scan(dir, discovery.Exclusions{
		ReportPrefix:    strings.TrimSuffix(cfg.Output.Report, filepath.Ext(cfg.Output.Report)),
		ProcessedSuffix: cfg.Output.ProcessedSuffix,
		Files:           []string{cfg.Rates.File, cfg.Output.RunLog},
	})
	if err != nil {
		return err
	}
	for _, f := range files {
		log.Debug("found input file", "file", f.Name, "size", f.Size)
	}

	engine := reconcile.New(
		fee.NewCalculator(rt, cfg.PurchaseMarker, cfg.RoundingMode()),
		reconcile.Options{
			Columns:         cfg.Columns,
			ProcessedSuffix: cfg.Output.ProcessedSuffix,
			ReportPath:      inDir(dir, cfg.Output.Report),
		},
		log,
	)

	sum, err := engine.Run(discovery.Paths(files), time.Now())
	if errors.Is(err, reconcile.ErrNothingToProcess) {
		fmt.Fprintln(out, "No files to process")
		return nil
	}
	if sum == nil {
		return err
	}

	printSummary(out, sum)

	if cfg.Output.RunLog != "" {
		entry := runlog.Entry{
			Timestamp:     start,
			Files:         len(sum.Outcomes),
			Failed:        sum.Failed(),
			Discrepancies: sum.Report.Len(),
			Warnings:      sum.Warnings(),
			Report:        sum.ReportPath,
			Duration:      time.Since(start),
		}
		if lerr := runlog.Append(inDir(dir, cfg.Output.RunLog), entry); lerr != nil {
			log.Warn("failed to write run log", "error", lerr)
		}
	}

	fmt.Fprintf(out, "Finished in %s\n", time.Since(start).Round(time.Millisecond))
	return err
}

func printSummary(w io.Writer, sum *reconcile.Summary) {
	for _, o := range sum.Outcomes {
		name := filepath.Base(o.Path)
		if o.Err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", name, o.Err)
			continue
		}
		fmt.Fprintf(w, "OK   %s -> %s (%d discrepancies)\n", name, filepath.Base(o.Result.OutputPath), len(o.Result.Discrepancies))
	}

	if sum.ReportPath != "" {
		fmt.Fprintf(w, "Report saved to %s\n", sum.ReportPath)
		fmt.Fprintf(w, "Discrepancies found: %d\n", sum.Report.Len())
	} else {
		fmt.Fprintln(w, "No discrepancies found")
	}
	if n := sum.Warnings(); n > 0 {
		fmt.Fprintf(w, "Rows with unreadable numbers: %d (see log)\n", n)
	}
}

func formatRates(rt *rates.Table) string {
	parts := make([]string, 0, len(rt.Codes()))
	for _, code := range rt.Codes() {
		parts = append(parts, code+"="+rt.Rate(code).String())
	}
	return strings.Join(parts, " ")
}

func waitForEnter(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "Press ENTER to continue")
	_, _ = bufio.NewReader(in).ReadString('\n')
}
