package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"paradestate/internal/model"
)

var (
	sweepDryRun bool
	sweepJSON   bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Revert expired statuses in the roster",
		Run:   runSweep,
	}
	cmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "只打印计划写入的单元格，不写入")
	cmd.Flags().BoolVar(&sweepJSON, "json", false, "以 JSON 输出报告")

	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	cfg, _ := loadConfig()
	a, err := openApp(cfg)
	if err != nil {
		exitErr("open roster", err)
	}
	defer a.Close()

	res, err := a.svc.RunSweep(cmd.Context(), sweepDryRun)
	if err != nil {
		exitErr("sweep", err)
	}

	out := cmd.OutOrStdout()
	if sweepJSON {
		b, _ := json.MarshalIndent(res, "", "  ")
		fmt.Fprintln(out, string(b))
		return
	}
	fmt.Fprintf(out, "Reference date: %s (%s)\n", res.Report.Reference.Format(model.DateLayout), res.Report.Weekday)
	fmt.Fprintln(out, res.Report.Message())
	if sweepDryRun {
		for _, b := range res.Report.Batches {
			fmt.Fprintf(out, "\n[%s]\n", b.Sheet)
			for _, m := range b.Mutations {
				fmt.Fprintf(out, "  %s = %v\n", m.Cell, m.Value)
			}
		}
	}
}
