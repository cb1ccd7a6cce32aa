package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusgrid/timetabling/pkg/export"
	"github.com/campusgrid/timetabling/pkg/model"
)

var (
	validStrategies = []string{"backtracking", "greedy"}
	validFormats    = []string{"json", "csv", "pdf", "instructors", "loads"}
	timetablers     = map[string]func(model.Config, *zap.Logger) model.Timetabler{
		"backtracking": model.NewBacktrackingTimetabler,
		"greedy":       model.NewGreedyTimetabler,
	}
)

type buildOptions struct {
	file     string
	out      string
	format   string
	strategy string
	title    string
}

func newBuildCmd() *cobra.Command {
	options := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Computes the timetable of a snapshot file",
		Long: `Computes the timetable of a JSON or YAML snapshot and verifies it before writing it.
Exits with 10 when every session was placed, 20 when the schedule is partial and
15 when the computed schedule fails verification.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, options)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&options.file, "file", "", "Path to the input snapshot (.json, .yaml or .yml)")
	flags.StringVar(&options.out, "out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	flags.StringVar(&options.format, "format", "json", `Output format: "json", "csv", "pdf", "instructors" or "loads"`)
	flags.StringVar(&options.strategy, "strategy", "backtracking", `Search strategy: "backtracking" (complete search with forward checking) or "greedy" (first fit)`)
	flags.StringVar(&options.title, "title", "Weekly timetable", "Title of the PDF output")
	flags.Int("budget", model.DefaultNodeBudget, "Maximum search nodes before the best partial schedule is returned")
	flags.Bool("paired-labs", false, "Prefer practicals adjacent to a lecture of the same course")
	flags.Float64("load-weight", model.DefaultLoadPenaltyWeight, "Weight of the daily load-balance penalty")
	flags.Bool("self-study", false, "Schedule self-study sessions")
	flags.Int("practical-block", 1, "Consecutive slots per practical session")
	flags.Int("rounds", model.DefaultImprovementRounds, "Soft-constraint improvement rounds")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// Flags given on the command line override the environment configuration
func searchConfig(cmd *cobra.Command, base model.Config) model.Config {
	flags := cmd.Flags()
	if flags.Changed("budget") {
		base.NodeBudget, _ = flags.GetInt("budget")
	}
	if flags.Changed("paired-labs") {
		base.PreferPairedLabs, _ = flags.GetBool("paired-labs")
	}
	if flags.Changed("load-weight") {
		base.LoadPenaltyWeight, _ = flags.GetFloat64("load-weight")
	}
	if flags.Changed("self-study") {
		base.SchedulesSelfStudy, _ = flags.GetBool("self-study")
	}
	if flags.Changed("practical-block") {
		base.PracticalBlock, _ = flags.GetInt("practical-block")
	}
	if flags.Changed("rounds") {
		base.ImprovementRounds, _ = flags.GetInt("rounds")
	}
	return base
}

func runBuild(cmd *cobra.Command, options buildOptions) error {
	options.strategy = strings.ToLower(options.strategy)
	options.format = strings.ToLower(options.format)
	if !slices.Contains(validStrategies, options.strategy) {
		return fmt.Errorf("%v is not a valid strategy", options.strategy)
	} else if !slices.Contains(validFormats, options.format) {
		return fmt.Errorf("%v is not a valid format", options.format)
	}

	cfg, logr, err := setup()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	input, err := model.InputFromFile(options.file)
	if err != nil {
		return fmt.Errorf("cannot parse input file: %w", err)
	}
	search := searchConfig(cmd, cfg.Scheduler.Model())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Scheduler.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scheduler.Timeout)
		defer cancel()
	}

	// Build timetable
	timetabler := timetablers[options.strategy](search, logr)
	schedule, err := timetabler.Build(ctx, input)
	if err != nil {
		return fmt.Errorf("an error occurred during timetable construction: %w", err)
	}

	// Verify timetable correctness
	if result := timetabler.Verify(schedule, input); !result.Valid() {
		for _, violation := range result.Violations {
			logr.Error("schedule violation",
				zap.String("rule", string(violation.Rule)),
				zap.String("subject", violation.Subject),
				zap.String("message", violation.Message),
			)
		}
		return exitError{code: exitInvalid}
	}

	if err := writeOutput(cmd, options, schedule, input); err != nil {
		return err
	}

	if schedule.Partial {
		return exitError{code: exitPartial}
	}
	return exitError{code: exitComplete}
}

func writeOutput(cmd *cobra.Command, options buildOptions, schedule *model.Schedule, input model.ModelInput) error {
	write := func(out io.Writer) error {
		if err := render(out, options, schedule, input); err != nil {
			return fmt.Errorf("an error occurred while writing the output: %w", err)
		}
		return nil
	}
	if options.out == "" {
		return write(cmd.OutOrStdout())
	}

	file, err := os.Create(options.out)
	if err != nil {
		return fmt.Errorf("an error occurred while opening the output file: %w", err)
	}
	return writeAndClose(file, write)
}

// The close error is only reported when writing succeeded, since it usually follows from the write error
func writeAndClose(out io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("an error occurred while closing the output file: %w", closeErr)
		}
	}()
	return write(out)
}

func render(out io.Writer, options buildOptions, schedule *model.Schedule, input model.ModelInput) error {
	switch options.format {
	case "csv":
		return export.WriteScheduleCSV(out, schedule)
	case "pdf":
		return export.WritePDF(out, schedule, options.title)
	case "instructors":
		return export.WriteInstructorJSON(out, schedule, input)
	case "loads":
		return export.WriteFacultyLoadCSV(out, schedule, input)
	default:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(schedule)
	}
}
