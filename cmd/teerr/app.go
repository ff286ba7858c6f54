package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ei-projects/teerr/pkg/relay"
	"github.com/ei-projects/teerr/pkg/target"
)

const versionTemplate = `teerr {{.Version}}
`

const examples = `  value=$(command | teerr)     # capture and echo to stderr
  generate | teerr | consume   # observe pipeline flow
  command | teerr 3            # write to fd 3 instead of stderr`

type app struct {
	strict   bool
	logFile  string
	logLevel string

	logOut   *os.File
	exitCode int
}

func (a *app) rootCmd() *cobra.Command {
	var cmdVersion = &cobra.Command{
		Use:   "version",
		Short: "Print version of teerr",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "teerr %s\n", fullVersion())
		},
	}

	var rootCmd = &cobra.Command{
		Use:   "teerr [fd]",
		Short: "Copy stdin to stdout and stderr",
		Long: "teerr copies standard input to standard output and duplicates every\n" +
			"byte to standard error, or to the already open file descriptor fd.\n" +
			"It is equivalent to: tee >(cat >&2)",
		Example:       examples,
		Version:       fullVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLog()
		},
		RunE: a.run,
	}
	rootCmd.SetVersionTemplate(versionTemplate)
	rootCmd.Flags().BoolP("version", "V", false, "Print version of teerr")
	rootCmd.Flags().BoolVarP(&a.strict, "strict", "s", false,
		"Stop with exit code 1 when a write to either output fails")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "",
		"Append diagnostics to this file. Diagnostics are discarded if not set")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", logrus.InfoLevel.String(),
		"Log level: panic, fatal, error, warn, info, debug or trace")
	rootCmd.AddCommand(cmdVersion)
	return rootCmd
}

// execute runs the command tree. Errors go to the command's stderr, never
// to its output stream, which carries relayed data.
func (a *app) execute(rootCmd *cobra.Command) error {
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		if cmd == nil {
			cmd = rootCmd
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func fullVersion() string {
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func (a *app) setupLog() error {
	level, err := logrus.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if a.logFile == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(a.logFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logOut = f
	log.SetOutput(f)
	return nil
}

func (a *app) closeLog() {
	if a.logOut != nil {
		a.logOut.Close()
		a.logOut = nil
	}
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	tgt, err := target.Resolve(args, cmd.ErrOrStderr())
	if err != nil {
		log.Errorf("Failed to resolve secondary output: %s", err)
		return err
	}

	r := relay.Relay{Log: log}
	if a.strict {
		r.Policy = relay.StopOnWriteError
	}
	log.WithFields(logrus.Fields{
		"secondary": tgt.Name,
		"policy":    r.Policy,
	}).Debug("Relay started")

	stats, err := r.Copy(cmd.InOrStdin(), cmd.OutOrStdout(), tgt.Writer)
	a.exitCode = relay.ExitCode(err)

	log.WithFields(logrus.Fields{
		"bytes":            humanize.Bytes(uint64(stats.Bytes)),
		"chunks":           stats.Chunks,
		"primary_errors":   stats.PrimaryErrors,
		"secondary_errors": stats.SecondaryErrors,
		"exit_code":        a.exitCode,
	}).Info("Relay finished")
	return nil
}
