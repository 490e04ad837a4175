package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emberlang/ember/internal/vm"
)

var cpuProfilePath string

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and run an Ember source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0])
		},
	}
	cmd.Flags().StringVar(&cpuProfilePath, "cpuprofile", "", "record a CPU profile of the VM dispatch loop and print its top functions")
	return cmd
}

func runFile(filename string) error {
	program, err := compile(filename)
	if err != nil {
		return err
	}

	if cpuProfilePath != "" {
		stop, err := startCPUProfile(cpuProfilePath)
		if err != nil {
			return err
		}
		defer stop()
	}

	engine := vm.NewEngine(program)
	if err := engine.Init(os.Stdout); err != nil {
		reportDiagnostic(runtimeDiagnostic(err))
		logger.Error("package initialization failed", zap.String("file", filename), zap.Error(err))
		return fmt.Errorf("running %s failed", filename)
	}

	main := engine.FindFunc("main")
	if main == nil {
		return fmt.Errorf("%s declares no main function", filename)
	}

	if _, err := engine.Call(os.Stdout, main, nil); err != nil {
		reportDiagnostic(runtimeDiagnostic(err))
		logger.Error("execution panicked", zap.String("file", filename), zap.Error(err))
		return fmt.Errorf("running %s failed", filename)
	}
	return nil
}

// startCPUProfile begins sampling via runtime/pprof and returns a function
// that stops the sampler, writes path, and prints a top-functions summary
// parsed back out with google/pprof's profile package (the same wire format
// runtime/pprof emits, read here for a human-readable digest instead of
// shelling out to the standalone pprof tool).
func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting cpu profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
		if err := summarizeProfile(path); err != nil {
			logger.Warn("could not summarize cpu profile", zap.Error(err))
		}
	}, nil
}
