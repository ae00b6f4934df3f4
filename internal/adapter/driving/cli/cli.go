// Package cli is the command-line driving adapter: flag parsing, the
// interactive flow, and terminal rendering.
package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/ericfisherdev/realyou/internal/domain/model"
)

// ExitError is an error that carries the process exit code. Message is
// already phrased for the user.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options is the parsed command line.
type Options struct {
	APIKey  string
	Phone   string
	Mode    model.InfoMode // empty when -i was not given
	Debug   bool
	ShowKey bool
	NoColor bool
	Timeout time.Duration // 0 waits until the job completes
}

// WantsLookup reports whether both a phone number and an info mode were given.
func (o *Options) WantsLookup() bool {
	return o.Phone != "" && o.Mode != ""
}

const usageHeader = `RealYou? - validate phone numbers using the IRBIS API.

Usage:
  realyou [options]

Options:
`

// Parse processes command-line arguments. It returns the parsed Options, a
// boolean indicating the program should exit cleanly (help was printed), or
// an *ExitError with code 2 for invalid usage.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	fs := pflag.NewFlagSet("realyou", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprint(output, usageHeader)
		fs.PrintDefaults()
	}

	var (
		opts Options
		info string
	)
	fs.StringVarP(&opts.APIKey, "apikey", "k", "", "your IRBIS API key; validated, then replaces the stored key")
	fs.StringVarP(&opts.Phone, "phone", "p", "", "phone number to validate, international format (e.g. +1234567890)")
	fs.StringVarP(&info, "info", "i", "", "type of information to retrieve: score or all")
	fs.BoolVarP(&opts.Debug, "debug", "d", false, "enable debug logging and print the raw result")
	fs.BoolVarP(&opts.ShowKey, "showkey", "s", false, "show the stored API key (masked)")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "give up on a lookup after this long (0 waits indefinitely)")
	fs.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if fs.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}

	if fs.Changed("info") {
		mode, err := model.ParseInfoMode(info)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		opts.Mode = mode
	}

	if opts.Timeout < 0 {
		return nil, false, &ExitError{Code: 2, Message: "--timeout must not be negative"}
	}

	return &opts, false, nil
}
