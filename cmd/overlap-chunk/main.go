// Package main is the entry point for the overlap-chunk CLI.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"overlap-chunk/internal/chunker"
	"overlap-chunk/internal/logger"
	"overlap-chunk/internal/params"
	"overlap-chunk/internal/textsource"
)

// cliFlags holds the flags for the root command
type cliFlags struct {
	size     int
	overlap  int
	json     bool
	logLevel string
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	defaults := params.Defaults()
	var opts cliFlags

	cmd := &cobra.Command{
		Use:   "overlap-chunk [flags] [file]",
		Short: "Split text into fixed-size, optionally overlapping chunks",
		Long: `Split text into chunks measured in Unicode characters.

Reads the named file, or standard input when no file is given, and prints
each chunk with a 1-based label. PDF files are converted to text first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(opts, args, stdin, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().IntVarP(&opts.size, "size", "s", defaults.ChunkSize, "Chunk size in characters")
	cmd.Flags().IntVarP(&opts.overlap, "overlap", "o", defaults.OverlapPercentage, "Overlap between chunks as a percentage of the size (0-100)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print chunks as a JSON array with offsets")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Diagnostic log level on stderr (debug, info, warn, error)")

	// Report flag and argument errors the same way as runtime errors.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return reportError(stderr, err)
	})
	origArgs := cmd.Args
	cmd.Args = func(c *cobra.Command, args []string) error {
		if err := origArgs(c, args); err != nil {
			return reportError(stderr, err)
		}
		return nil
	}
	return cmd
}

func run(opts cliFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	log := logger.NewText(stderr, opts.logLevel)

	p := params.Params{ChunkSize: opts.size, OverlapPercentage: opts.overlap}
	if err := p.Validate(); err != nil {
		return reportError(stderr, err)
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	text, err := textsource.Read(path, stdin)
	if err != nil {
		return reportError(stderr, err)
	}

	chunks := chunker.Split(text, p.ChunkSize, p.Options())
	plan := chunker.NewPlan(p.ChunkSize, p.Options())
	log.Debug("chunked input",
		"source", sourceName(path),
		"chunks", len(chunks),
		"chunk_size", plan.ChunkSize,
		"overlap_size", plan.OverlapSize,
		"step_size", plan.StepSize,
	)

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}
	for i, c := range chunks {
		if _, err := fmt.Fprintf(stdout, "Chunk %d: %s\n", i+1, c.Text); err != nil {
			return err
		}
	}
	return nil
}

func reportError(stderr io.Writer, err error) error {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return err
}

func sourceName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}
