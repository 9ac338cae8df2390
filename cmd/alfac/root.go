// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alfatranslator/alfac/internal/builtins"
	"github.com/alfatranslator/alfac/internal/driver"
	"github.com/alfatranslator/alfac/internal/logging"
	"github.com/alfatranslator/alfac/internal/metrics"
	"github.com/alfatranslator/alfac/internal/observability"
	"github.com/alfatranslator/alfac/pkg/errutil"
)

// exitCodeError carries the process exit code spec §6 assigns to a
// failure class, so main can translate cmd.Execute's error into the
// right os.Exit call without re-deriving it from err's type.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitCodeError{code: 2, err: fmt.Errorf(format, args...)}
}

func ioError(err error) error {
	return &exitCodeError{code: 3, err: err}
}

// exitCode extracts the exit code spec §6 assigns to err: 0 for nil, the
// code carried by an exitCodeError, or 2 for any other error (cobra's own
// flag-parsing failures surface this way).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ece *exitCodeError
	if ok := asExitCodeError(err, &ece); ok {
		return ece.code
	}
	return 2
}

func asExitCodeError(err error, target **exitCodeError) bool {
	for err != nil {
		if ece, ok := err.(*exitCodeError); ok {
			*target = ece
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// cliOptions holds every flag newRootCmd declares, before koanf layering.
type cliOptions struct {
	inputs          []string
	output          string
	namespace       string
	disableBuiltins bool
	showBuiltins    bool
	configFile      string
	metricsAddr     string
	logFormat       string
	verbose         bool
}

func newRootCmd(version string) *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:     "alfac",
		Short:   "Compile ALFA policies to XACML 3.0",
		Long:    "alfac lexes, parses, resolves, typechecks, and normalizes ALFA source into XACML 3.0 Policy/PolicySet XML documents.",
		Version: version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoot(cmd.Context(), opts, cmd.Flags(), version)
		},
	}

	cmd.Flags().StringArrayVar(&opts.inputs, "input", nil, "ALFA source file or directory, repeatable")
	cmd.Flags().StringVar(&opts.output, "output", "", "directory to write XACML documents to")
	cmd.Flags().StringVar(&opts.namespace, "namespace", "", "prefix prepended to every emitted PolicySetId/PolicyId/RuleId")
	cmd.Flags().BoolVar(&opts.disableBuiltins, "disable-builtins", false, "do not load the bundled XACML 3.0 builtins catalog")
	cmd.Flags().BoolVar(&opts.showBuiltins, "show-builtins", false, "print the bundled builtins catalog and exit")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "YAML config file pre-populating input/output/namespace/disable-builtins")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics and a liveness probe on this address during the run")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "json", "log output format: json or text")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "has no effect: logs are always written at debug level")

	return cmd
}

// loadConfig layers opts.configFile's YAML (if set) under the flags the
// user actually passed on the command line, via koanf's file+posflag
// providers — flags always win over the config file.
func loadConfig(opts *cliOptions, flags *pflag.FlagSet) error {
	if opts.configFile == "" {
		return nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(opts.configFile), yaml.Parser()); err != nil {
		return fmt.Errorf("reading config %q: %w", opts.configFile, err)
	}
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return fmt.Errorf("merging flags over config %q: %w", opts.configFile, err)
	}

	if !flags.Changed("input") {
		opts.inputs = k.Strings("input")
	}
	if !flags.Changed("output") {
		opts.output = k.String("output")
	}
	if !flags.Changed("namespace") {
		opts.namespace = k.String("namespace")
	}
	if !flags.Changed("disable-builtins") {
		opts.disableBuiltins = k.Bool("disable-builtins")
	}
	return nil
}

func runRoot(ctx context.Context, opts *cliOptions, flags *pflag.FlagSet, version string) error {
	if err := loadConfig(opts, flags); err != nil {
		return ioError(err)
	}

	logger := logging.Setup("alfac", version, opts.logFormat, nil)
	slog.SetDefault(logger)

	if opts.showBuiltins {
		names, err := builtins.Listing()
		if err != nil {
			return ioError(fmt.Errorf("listing builtins: %w", err))
		}
		fmt.Println(strings.Join(names, "\n"))
		return nil
	}

	if len(opts.inputs) == 0 {
		return usageError("--input is required (repeatable; file or directory)")
	}
	if opts.output == "" {
		return usageError("--output is required")
	}

	var obsServer *observability.Server
	var m *metrics.Metrics
	if opts.metricsAddr != "" {
		obsServer = observability.NewServer(opts.metricsAddr)
		if err := obsServer.Start(); err != nil {
			return ioError(fmt.Errorf("starting metrics server: %w", err))
		}
		m = metrics.New(obsServer.Registry())
		defer func() {
			time.Sleep(metricsShutdownGrace)
			stopCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownGrace)
			defer cancel()
			if err := obsServer.Stop(stopCtx); err != nil {
				errutil.LogError(logger, "stopping metrics server", err)
			}
		}()
	}

	cfg := driver.Config{
		Inputs:          opts.inputs,
		OutputDir:       opts.output,
		Namespace:       opts.namespace,
		DisableBuiltins: opts.disableBuiltins,
	}
	d := driver.New(cfg, m)

	runErr := d.Run(ctx)
	for _, diag := range d.Sink().Diagnostics() {
		fmt.Fprintln(cmdErrWriter, diag.Error())
	}

	switch {
	case runErr == nil:
		return nil
	case runErr == driver.ErrCompileFailed:
		return &exitCodeError{code: 1, err: runErr}
	default:
		errutil.LogError(logger, "compile run failed", runErr)
		return ioError(runErr)
	}
}
