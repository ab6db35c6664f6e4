package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanadyn/flowbid/app"
	"github.com/vanadyn/flowbid/config"
	"github.com/vanadyn/flowbid/infra/logger"
	"github.com/vanadyn/flowbid/pkg/export"
)

var (
	pricesCSV   string
	tableOut    string
	strategyOut string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one bidding decision for the next delivery day",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVar(&pricesCSV, "prices", "", "day-ahead price CSV (synthetic curve when empty)")
	runCmd.Flags().StringVar(&tableOut, "table-out", "", "write the bid table CSV to this file")
	runCmd.Flags().StringVar(&strategyOut, "strategy-out", "", "write the joint strategy CSV to this file")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	out, err := svc.Run(ctx, pricesCSV)
	if err != nil {
		return err
	}

	if tableOut != "" {
		if err := writeFile(tableOut, func(f *os.File) error {
			return export.WriteBidTableCSV(f, out.Table)
		}); err != nil {
			return fmt.Errorf("writing bid table: %w", err)
		}
	}
	if strategyOut != "" {
		if err := writeFile(strategyOut, func(f *os.File) error {
			return export.WriteJointStrategyCSV(f, out.Strategy)
		}); err != nil {
			return fmt.Errorf("writing joint strategy: %w", err)
		}
	}

	st := out.Strategy
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: mode=%s da_profit=%.2f fm_profit=%.2f joint_profit=%.2f freq=%s\n",
		st.RunID, st.Status.Mode, st.DayAhead.NetProfit, st.Freq.NetProfit, st.Joint.JointProfit, st.Status.Frequency)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
