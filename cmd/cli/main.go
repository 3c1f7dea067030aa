package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes follow the SAT solver convention used by the schedule tooling
const (
	exitOptimal      = 10
	exitVerifyFailed = 15
	exitInfeasible   = 20
	exitError        = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root, app := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	return app.exitCode
}
