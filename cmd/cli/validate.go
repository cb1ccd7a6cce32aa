package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campusgrid/timetabling/pkg/model"
)

func newValidateCmd() *cobra.Command {
	var inputFile, scheduleFile string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Re-checks a schedule against a snapshot",
		Long: `Re-checks every hard constraint of a JSON schedule (computed or hand-made)
against a snapshot and prints the violations. Exits with 15 when any is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := model.InputFromFile(inputFile)
			if err != nil {
				return fmt.Errorf("cannot parse input file: %w", err)
			}
			data, err := os.ReadFile(scheduleFile)
			if err != nil {
				return fmt.Errorf("cannot read schedule file: %w", err)
			}
			var schedule model.Schedule
			if err := json.Unmarshal(data, &schedule); err != nil {
				return fmt.Errorf("cannot parse schedule file: %w", err)
			}

			result := model.ValidateSchedule(&schedule, input)
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				return err
			}
			if !result.Valid() {
				return exitError{code: exitInvalid}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inputFile, "file", "", "Path to the input snapshot (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&scheduleFile, "schedule", "", "Path to the JSON schedule to check")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("schedule")
	return cmd
}
