package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/mineplan/core/history"
)

var historyOpts struct {
	limit  int
	page   int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Schedule history commands",
}

var historyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored schedules, newest first",
	RunE:  runHistoryLs,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id|latest>",
	Short: "Print a stored schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyLsCmd.Flags().IntVar(&historyOpts.limit, "limit", history.DefaultPageLimit, "page size")
	historyLsCmd.Flags().IntVar(&historyOpts.page, "page", 1, "page number")
	historyShowCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "json", "output format: json, csv or html")
	historyCmd.AddCommand(historyLsCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (history.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return history.OpenConfig(cfg.History.Store())
}

func runHistoryLs(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	page := history.Page{Limit: historyOpts.limit, Page: historyOpts.page}.Normalize()
	items, total, err := store.List(context.Background(), page)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGENERATED\tBY\tHOURS")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID, s.GeneratedAt.Format(time.RFC3339), s.GeneratedBy, s.GridHours)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d schedules\n", page.Page, page.Pages(total), total)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if err := checkFormat(historyOpts.format); err != nil {
		return err
	}
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	var rec history.Record
	if args[0] == "latest" {
		rec, err = store.Latest(context.Background())
	} else {
		rec, err = store.Get(context.Background(), args[0])
	}
	if err != nil {
		return err
	}
	return writeRecord(cmd.OutOrStdout(), rec, historyOpts.format)
}
