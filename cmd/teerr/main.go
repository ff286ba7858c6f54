// teerr copies standard input to standard output and to standard error, or
// to an inherited file descriptor given as the only argument. It is a
// shorter spelling of `tee >(cat >&2)`.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Replaced by linker, see Makefile
var (
	version = "master"
	commit  = "none"
	date    = "unknown"
)

var log = logrus.New()

func main() {
	var a app
	rootCmd := a.rootCmd()
	err := a.execute(rootCmd)
	a.closeLog()
	if err != nil {
		os.Exit(2)
	}
	os.Exit(a.exitCode)
}
