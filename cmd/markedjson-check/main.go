/*
markedjson-check loads JSON-shaped configuration files and reports every
problem with its source position.

Usage is

	markedjson-check [--quiet] [--dump] [--log-format plain|text|json] [--name <name>] [<file>...]

With no files, or with "-", standard input is read; --name sets the name
shown for it. Syntax errors stop the check of that file; value problems such
as duplicate keys are all reported. The exit status is 1 if any file had a
problem.
*/
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/shapestone/shape-markedjson/pkg/mark"
	"github.com/shapestone/shape-markedjson/pkg/markedjson"
)

var errProblems = errors.New("problems found")

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		if !errors.Is(err, errProblems) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "markedjson-check",
		Usage:     "check configuration files and report problems with their positions",
		ArgsUsage: "[file...]",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "report nothing, only set the exit status"},
			&cli.BoolFlag{Name: "dump", Usage: "print every loaded document, re-encoded"},
			&cli.StringFlag{Name: "log-format", Value: "plain", Usage: "problem output: plain, text or json"},
			&cli.StringFlag{Name: "name", Value: "<stdin>", Usage: "source name for standard input"},
		},
		Action: run,
	}
}

// checker holds the per-run output settings.
type checker struct {
	stdout io.Writer
	stderr io.Writer
	sink   mark.Sink
	logger *slog.Logger
	quiet  bool
	dump   bool
}

func run(c *cli.Context) error {
	ck := &checker{
		stdout: c.App.Writer,
		stderr: c.App.ErrWriter,
		quiet:  c.Bool("quiet"),
		dump:   c.Bool("dump"),
	}

	switch format := c.String("log-format"); format {
	case "plain":
		ck.sink = mark.WriterSink(ck.stderr)
	case "text":
		ck.logger = slog.New(slog.NewTextHandler(ck.stderr, nil))
	case "json":
		ck.logger = slog.New(slog.NewJSONHandler(ck.stderr, nil))
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	if ck.logger != nil {
		ck.sink = mark.LogSink(ck.logger)
	}
	if ck.quiet {
		ck.sink = mark.Discard
	}

	files := c.Args().Slice()
	if len(files) == 0 {
		files = []string{"-"}
	}

	failed := false
	for _, file := range files {
		var ok bool
		var err error
		if file == "-" {
			ok, err = ck.check(c.App.Reader, c.String("name"))
		} else {
			ok, err = ck.checkFile(file)
		}
		if err != nil {
			return err
		}
		failed = failed || !ok
	}
	if failed {
		return errProblems
	}
	return nil
}

func (ck *checker) checkFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return ck.check(f, path)
}

// check loads one document. It reports whether the document was clean; the
// error is reserved for I/O failures.
func (ck *checker) check(r io.Reader, name string) (bool, error) {
	root, hadErrors, err := markedjson.Load(r, markedjson.WithName(name), markedjson.WithSink(ck.sink))

	var fatal *mark.Error
	switch {
	case errors.As(err, &fatal):
		ck.reportFatal(fatal)
		return false, nil
	case err != nil:
		return false, err
	}

	if ck.dump && root != nil {
		out, err := markedjson.MarshalIndent(root, "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintf(ck.stdout, "%s\n", out)
	}
	return !hadErrors, nil
}

func (ck *checker) reportFatal(e *mark.Error) {
	if ck.quiet {
		return
	}
	if ck.logger == nil {
		fmt.Fprintf(ck.stderr, "\n%s\n", e)
		return
	}
	attrs := []any{slog.String("kind", e.Kind.String()), slog.String("problem", e.Problem)}
	if e.Context != "" {
		attrs = append(attrs, slog.String("context", e.Context))
	}
	if m := e.Mark(); m != nil {
		attrs = append(attrs,
			slog.String("file", m.Name),
			slog.Int("line", m.Line+1),
			slog.Int("column", m.Column+1),
		)
	}
	ck.logger.Error("config syntax error", attrs...)
}
