package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/mineplan/app"
	"github.com/kilianp07/mineplan/core/history"
	"github.com/kilianp07/mineplan/core/model"
	"github.com/kilianp07/mineplan/core/planner"
	"github.com/kilianp07/mineplan/core/schedule"
	"github.com/kilianp07/mineplan/pkg/export"
)

var generateOpts struct {
	plan    string
	hours   int
	delays  string
	format  string
	out     string
	by      string
	notes   string
	summary bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a schedule from the plan file and store it",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateOpts.plan, "plan", "p", "", "plan file, overrides planning.plan_file")
	f.IntVar(&generateOpts.hours, "hours", 0, "grid hours, defaults to planning.grid_hours")
	f.StringVar(&generateOpts.delays, "delays", "", "JSON file with delayed slots")
	f.StringVarP(&generateOpts.format, "format", "f", "json", "output format: json, csv or html")
	f.StringVarP(&generateOpts.out, "out", "o", "", "output file, defaults to stdout")
	f.StringVar(&generateOpts.by, "by", "cli", "recorded as generatedBy")
	f.StringVar(&generateOpts.notes, "notes", "", "notes stored with the schedule")
	f.BoolVar(&generateOpts.summary, "summary", false, "print an allocation summary to stderr")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := checkFormat(generateOpts.format); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if generateOpts.plan != "" {
		cfg.Planning.PlanFile = generateOpts.plan
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	req := planner.Request{
		GridHours:   generateOpts.hours,
		GeneratedBy: generateOpts.by,
		Notes:       generateOpts.notes,
	}
	if generateOpts.delays != "" {
		if req.DelayedSlots, err = readDelays(generateOpts.delays); err != nil {
			return err
		}
	}
	rec, err := svc.Planner.Generate(context.Background(), req)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if generateOpts.out != "" {
		f, err := os.Create(generateOpts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := writeRecord(w, *rec, generateOpts.format); err != nil {
		return err
	}
	if generateOpts.summary {
		printSummary(cmd.ErrOrStderr(), *rec)
	}
	return nil
}

func readDelays(path string) ([]model.DelayedSlot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read delays: %w", err)
	}
	var slots []model.DelayedSlot
	if err := json.Unmarshal(b, &slots); err != nil {
		return nil, fmt.Errorf("decode delays: %w", err)
	}
	return slots, nil
}

// checkFormat rejects output formats writeRecord cannot render.
func checkFormat(format string) error {
	switch format {
	case "", "json", "csv", "html":
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeRecord(w io.Writer, rec history.Record, format string) error {
	switch format {
	case "json", "":
		return export.WriteJSON(w, rec)
	case "csv":
		return export.WriteCSV(w, rec)
	case "html":
		return export.WriteHTML(w, rec)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func printSummary(w io.Writer, rec history.Record) {
	s := schedule.Summarize(rec.Result)
	fmt.Fprintf(w, "schedule %s: %d filled cells over %d hours\n", rec.ID, s.FilledCells, rec.Result.GridHours)
	fmt.Fprintf(w, "occupancy mean %.2f stddev %.2f peak %d at hour %d\n", s.MeanOccupancy, s.StdDevOccupancy, s.PeakOccupancy, s.PeakHour)
	for _, id := range export.SiteOrder(rec) {
		fmt.Fprintf(w, "  %-12s %3d h\n", id, s.SiteHours[id])
	}
}
