package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/slotplan/core/model"
	"github.com/kilianp07/slotplan/infra/store"
	"github.com/kilianp07/slotplan/pkg/render"
)

var historyOpts struct {
	limit  int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved planning runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, most recent first",
	RunE:  historyList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Display a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShow,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 20, "number of runs to list, 0 for all")
	historyShowCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "tiles", formatsHelp)
	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.Store.Path)
}

func historyList(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	runs, err := st.List(context.Background(), historyOpts.limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tMETHOD\tTODAY\tWEEKS\tASSIGNED DAYS\tUNSCHEDULED DAYS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%g\t%g\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Method, r.Today.Format(model.DateLayout), r.Weeks, float64(r.AssignedSlots)/2, r.UnscheduledDays)
	}
	return tw.Flush()
}

func historyShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	run, s, err := st.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "run %s created %s\n", run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04"))
	return writeSchedule(cmd.OutOrStdout(), render.New(nil), s, historyOpts.format, true)
}
