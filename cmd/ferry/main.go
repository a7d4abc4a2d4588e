package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bamsammich/ferry/internal/config"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code: 0 on success, 1
// when some operations failed, 2 when all failed or the invocation was bad.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:           "ferry",
		Short:         "Copy and move files, directories, symlinks and special files with their attributes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(stdout, "ferry %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	pf := root.PersistentFlags()
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.BoolP("quiet", "q", false, "suppress all output except errors")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log", "", "write structured JSON log to FILE")
	pf.String("metrics-file", "", "write Prometheus metrics to FILE (node_exporter textfile format)")

	root.AddCommand(newCopyCmd(stdout, stderr))
	root.AddCommand(newMoveCmd(stdout, stderr))
	root.AddCommand(newEnvCmd(stdout))
	root.AddCommand(newDocsCmd())
	return root
}

// settings layers flag values over FERRY_* environment variables over the
// config file over built-in defaults.
func settings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for key, val := range cfg.Values() {
		v.SetDefault(key, val)
	}

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("ferry")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v, nil
}

// bindFlags binds every flag under its own name. Unchanged flags still
// resolve to the config file or environment before their flag default.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || err != nil {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
