// Command ember lexes, parses, resolves, generates bytecode for, and
// executes Ember source files. It replaces the teacher's cmd/malphas
// LLVM-toolchain driver with a cobra-based command tree.
package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// colorMode is a tri-state pflag.Value: auto-detect, force on, or force off.
type colorMode struct {
	value string
}

func (c *colorMode) String() string { return c.value }

func (c *colorMode) Set(s string) error {
	switch s {
	case "auto", "always", "never":
		c.value = s
		return nil
	default:
		return fmt.Errorf("must be one of auto, always, never")
	}
}

func (c *colorMode) Type() string { return "color" }

var (
	jsonDiag  bool
	pprofAddr string
	color     = &colorMode{value: "auto"}
	logger    *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "ember",
		Short:         "Ember bytecode interpreter",
		Long:          "ember lexes, parses, resolves, generates bytecode for, and runs Ember source files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
			if pprofAddr != "" {
				logger.Info("starting pprof server", zap.String("addr", pprofAddr))
				go func() {
					if err := http.ListenAndServe(pprofAddr, nil); err != nil {
						logger.Warn("pprof server exited", zap.Error(err))
					}
				}()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&jsonDiag, "json", false, "emit diagnostics as JSON instead of the formatted output")
	flags.StringVar(&pprofAddr, "pprof", "", "start net/http/pprof on this address (e.g. localhost:6060)")
	var colorFlag pflag.Value = color
	flags.Var(colorFlag, "color", `colorize diagnostics: "auto", "always", or "never"`)

	root.AddCommand(newRunCmd())
	root.AddCommand(newDisasmCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			version := os.Getenv("EMBER_VERSION")
			if version == "" {
				version = "dev"
			}
			fmt.Printf("ember version %s\n", version)
			return nil
		},
	}
}

func wantColor() bool {
	switch color.value {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(os.Stderr)
	}
}
