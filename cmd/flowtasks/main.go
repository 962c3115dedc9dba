// Command flowtasks is a terminal client for the FlowTasks API.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	a := &app{out: os.Stdout, in: os.Stdin}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "flowtasks",
		Short:         "FlowTasks - personal task manager",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.opts.configPath, "config", "", "config file (default ./config.yaml)")
	f.StringVar(&a.opts.baseURL, "api", "", "API base URL, e.g. http://localhost:5000/api")
	f.StringVar(&a.opts.sessionDir, "session-dir", "", "directory holding the saved session")
	f.StringVarP(&a.opts.output, "output", "o", "table", "output format: table, json or yaml")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log requests and failures to stderr")

	root.AddCommand(
		registerCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		listCmd(a),
		addCmd(a),
		doneCmd(a),
		editCmd(a),
		removeCmd(a),
		statsCmd(a),
		exportCmd(a),
		adminCmd(a),
		shellCmd(a),
	)
	return root
}

// exitError carries a specific process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
