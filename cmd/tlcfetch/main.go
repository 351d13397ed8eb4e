package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitStorageError     = 5
	ExitPartialFailure   = 6
	ExitValidationFailed = 7
)

// Reports go to stdout, status lines and logs to stderr.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "download":
		return runDownload(cmdArgs)
	case "plan":
		return runPlan(cmdArgs)
	case "list":
		return runList(cmdArgs)
	case "verify":
		return runVerify(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(stderr, `Usage: tlcfetch <command> [options]

Commands:
  download  Download monthly trip-record files into the destination
  plan      Print the files a download would fetch, without fetching
  list      Show the files held in the destination per category
  verify    Flag stored files too small to be complete

Run 'tlcfetch <command> -h' for command-specific help.`)
}
