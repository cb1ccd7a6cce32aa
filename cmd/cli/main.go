package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusgrid/timetabling/internal/config"
	"github.com/campusgrid/timetabling/internal/logger"
)

// Exit statuses of build and validate
const (
	exitComplete = 10
	exitInvalid  = 15
	exitPartial  = 20
)

type exitError struct {
	code int
}

func (err exitError) Error() string {
	return fmt.Sprintf("exit status %d", err.code)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "timetabling",
		Short: "timetabling places weekly course sessions on a lunch-aware grid",
		Long: `Timetabling derives the weekly sessions of every course and places them on a
Monday to Friday grid honouring instructor availability, maximum loads, lunch
and rooms. It can run once over a snapshot file or serve an HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newBuildCmd(), newValidateCmd(), newServeCmd())
	return rootCmd
}

func main() {
	err := newRootCmd().Execute()
	var exit exitError
	switch {
	case errors.As(err, &exit):
		os.Exit(exit.code)
	case err != nil:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Environment configuration and the logger every command starts from
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}
