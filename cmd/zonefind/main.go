// Command zonefind prints the busiest spike windows found in saved signal logs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"spike-zone-bot/analyzer"
	"spike-zone-bot/logging"
	"spike-zone-bot/report"
	"spike-zone-bot/zones"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zonefind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	window := fs.Int("window", zones.DefaultWindow, "window length in minutes")
	top := fs.Int("top", zones.DefaultTopZones, "number of zones to report")
	minEvents := fs.Int("min", analyzer.DefaultMinEvents, "minimum number of spikes required")
	wrap := fs.Bool("wrap", false, "let windows wrap across midnight")
	histogram := fs.Bool("histogram", false, "also print a 30-minute histogram")
	noColor := fs.Bool("no-color", false, "disable colored output")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: zonefind [flags] [files...]\nReads stdin when no file is given.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *window < 1 || *window > zones.MinutesPerDay/2 || *top < 1 || *minEvents < 1 {
		fmt.Fprintln(stderr, "zonefind: -window must be 1..720, -top and -min at least 1")
		return 2
	}
	if *noColor {
		color.NoColor = true
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.Init(stderr, false, level)

	text, err := readInput(fs.Args(), stdin)
	if err != nil {
		logger.Error("read input failed", "err", err)
		return 1
	}

	svc := &analyzer.Service{
		Log:       logger,
		Finder:    zones.Finder{Window: *window, TopZones: *top, Wrap: *wrap},
		MinEvents: *minEvents,
	}
	rep, err := svc.Analyze(context.Background(), analyzer.Request{Source: "cli", Text: text})
	if errors.Is(err, analyzer.ErrInsufficientData) {
		fmt.Fprintf(stderr, "%s (%v)\n", analyzer.InsufficientDataMessage, err)
		return 1
	}
	if err != nil {
		logger.Error("analysis failed", "err", err)
		return 1
	}

	fmt.Fprint(stdout, report.Plain(rep.Result))
	if rep.Skipped > 0 {
		fmt.Fprintf(stdout, "%d of %d records had no usable time and were skipped\n", rep.Skipped, rep.Blocks)
	}
	if *histogram {
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, report.Histogram(rep.Result.Histogram, rep.Result, 30))
	}
	return 0
}

func readInput(paths []string, stdin io.Reader) (string, error) {
	if len(paths) == 0 {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	var sb strings.Builder
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
