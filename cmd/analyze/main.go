// Command analyze runs the transaction analyzer on a local CSV file and
// prints the result as JSON.
//
//	analyze -file transactions.csv -stats
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/remiges-tech/txnanalyzer/analyzer"
	"github.com/remiges-tech/txnanalyzer/logger"
)

type report struct {
	analyzer.Result
	Stats *analyzer.Stats `json:"stats,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "CSV file to analyze")
	withStats := fs.Bool("stats", false, "Include row counts in the output")
	priority := fs.String("logPriority", "warn", "Log priority for diagnostics written to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return fmt.Errorf("-file is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := analyzer.New(logger.New("txnanalyzer-cli", *priority, stderr), nil)
	res, err := a.AnalyzeFile(ctx, *file)
	if err != nil {
		return err
	}

	out := report{Result: res}
	if *withStats {
		out.Stats = &res.Stats
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
