package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"

	"lambundle/cmd/lambundle/bundle"
	"lambundle/cmd/lambundle/externals"
	"lambundle/cmd/lambundle/history"
	"lambundle/cmd/lambundle/inspect"
	"lambundle/pkg/ctxlog"
	"lambundle/pkg/registry"
	"lambundle/pkg/version"

	"github.com/spf13/cobra"
)

var Registry registry.CommandRegistry

func init() {
	Registry.FromGetter(bundle.GetCommand)
	Registry.FromGetter(externals.GetCommand)
	Registry.FromGetter(inspect.GetCommand)
	Registry.FromGetter(history.GetCommand)
}

func main() {
	var stopProfiling func() error
	cmd := newRootCommand(&stopProfiling)

	ctx := ctxlog.WithLogger(context.Background(), slog.Default())
	if err := cmd.ExecuteContext(ctx); err != nil {
		if stopProfiling != nil {
			if stopErr := stopProfiling(); stopErr != nil {
				slog.Error("failed to stop profiling", "err", stopErr)
			}
		}
		slog.Error("error", "err", err)
		os.Exit(1)
	}
}

func newRootCommand(stopProfiling *func() error) *cobra.Command {
	var verbose bool
	var cpuProfilePath string
	var memProfilePath string

	cmd := &cobra.Command{
		Use:           "lambundle",
		Short:         "lambundle - bundle Node.js Lambda functions into deployable zips",
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			if *stopProfiling != nil {
				return nil
			}
			cpuPath := cpuProfilePath
			if cpuPath == "" {
				cpuPath = os.Getenv("LAMBUNDLE_CPUPROFILE")
			}
			memPath := memProfilePath
			if memPath == "" {
				memPath = os.Getenv("LAMBUNDLE_MEMPROFILE")
			}

			stop, err := startProfiling(cpuPath, memPath)
			if err != nil {
				return err
			}
			*stopProfiling = stop
			if cpuPath != "" || memPath != "" {
				slog.Debug("profiling started", "cpu", cpuPath, "mem", memPath)
			}
			return nil
		},
		PersistentPostRunE: func(c *cobra.Command, args []string) error {
			if *stopProfiling == nil {
				return nil
			}
			err := (*stopProfiling)()
			*stopProfiling = nil
			return err
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("quiet", false, "Only print errors")
	cmd.PersistentFlags().String("config", "", "Config file (default $LAMBUNDLE_CONFIG or ./lambundle.toml)")
	cmd.PersistentFlags().StringVar(&cpuProfilePath, "cpuprofile", "", "Write CPU profile to file (or set LAMBUNDLE_CPUPROFILE)")
	cmd.PersistentFlags().StringVar(&memProfilePath, "memprofile", "", "Write heap profile to file at end (or set LAMBUNDLE_MEMPROFILE)")
	return Registry.FillCommands(cmd)
}

func startProfiling(cpuProfilePath, memProfilePath string) (func() error, error) {
	var cpuFile *os.File
	if cpuProfilePath != "" {
		f, err := os.Create(cpuProfilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cpuprofile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		cpuFile = f
	}

	return func() error {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			if err := cpuFile.Close(); err != nil {
				return err
			}
		}
		if memProfilePath != "" {
			f, err := os.Create(memProfilePath)
			if err != nil {
				return fmt.Errorf("failed to create memprofile file: %w", err)
			}
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to write heap profile: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
		return nil
	}, nil
}
