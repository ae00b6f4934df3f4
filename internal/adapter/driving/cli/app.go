package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/realyou/internal/application"
	"github.com/ericfisherdev/realyou/internal/domain/model"
	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

// App runs one invocation of the command-line flow.
type App struct {
	in      *bufio.Reader
	render  *Renderer
	creds   *application.CredentialService
	lookups *application.LookupService
}

// NewApp creates an App that reads prompted input from in.
func NewApp(
	in io.Reader,
	render *Renderer,
	creds *application.CredentialService,
	lookups *application.LookupService,
) *App {
	return &App{
		in:      bufio.NewReader(in),
		render:  render,
		creds:   creds,
		lookups: lookups,
	}
}

// Run executes the flow selected by opts. Failures that have been reported
// to the user are returned as *ExitError.
func (a *App) Run(ctx context.Context, opts *Options) error {
	a.render.Banner()

	if opts.APIKey == "" && opts.ShowKey {
		a.showKey(ctx)
		return nil
	}

	res, err := a.creds.Resolve(ctx, opts.APIKey, a.prompt)
	if err != nil {
		return credentialFailure(err)
	}

	switch res.Source {
	case application.SourceExplicit:
		a.render.Success("API key replaced and validated successfully!")
	case application.SourcePrompt:
		a.render.Success("API key validated successfully!")
	}
	a.render.Account(res.Account)
	if res.Source == application.SourceStored {
		a.render.Commands()
	}

	if !opts.WantsLookup() {
		a.render.Notice("\nNo phone search command provided. Use -h for help.")
		return nil
	}

	return a.lookup(ctx, res.APIKey, opts)
}

func (a *App) showKey(ctx context.Context) {
	key, ok := a.creds.LoadStored(ctx)
	if !ok {
		a.render.Notice("No API key found. Please set an API key using the -k option.")
		return
	}
	a.render.Success("Current API key: " + model.MaskCredential(key))
}

func (a *App) prompt() (string, error) {
	a.render.label.Fprint(a.render.out, "Enter your API key: ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) lookup(ctx context.Context, apiKey string, opts *Options) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res, err := a.lookups.Run(ctx, apiKey, opts.Phone, opts.Mode)
	if err != nil {
		if errors.Is(err, driven.ErrPackageRequired) {
			a.render.PackageRequired()
		}
		return lookupFailure(err, opts)
	}

	slog.Debug("lookup result received", "job_id", res.Job.ID, "records", len(res.Raw.Items()))
	if opts.Debug {
		a.render.Raw(res.Raw)
	}
	a.render.Facts(res.Facts)
	return nil
}

func credentialFailure(err error) *ExitError {
	var msg string
	switch {
	case errors.Is(err, application.ErrStoredCredentialInvalid):
		msg = "Stored API key is invalid. Please run realyou again with a new API key using the -k option."
	case errors.Is(err, driven.ErrInvalidCredential):
		msg = "Invalid API key. Please try again."
	case errors.Is(err, driven.ErrProtocol):
		msg = fmt.Sprintf("Unexpected account data from the identity service: %v", err)
	case errors.Is(err, driven.ErrTransport):
		msg = fmt.Sprintf("Could not reach the identity service: %v", err)
	case errors.Is(err, context.Canceled):
		msg = "Interrupted."
	default:
		msg = fmt.Sprintf("Could not resolve an API key: %v", err)
	}
	return &ExitError{Code: 1, Message: msg}
}

func lookupFailure(err error, opts *Options) *ExitError {
	var msg string
	switch {
	case errors.Is(err, model.ErrInvalidPhone):
		msg = "Invalid phone number format. Please use the international format without spaces, e.g., +1234567890."
	case errors.Is(err, driven.ErrPackageRequired):
		msg = "Error triggering phone lookup: your account has no package for this service."
	case errors.Is(err, context.DeadlineExceeded):
		msg = fmt.Sprintf("Lookup did not complete within %s.", opts.Timeout)
	case errors.Is(err, context.Canceled):
		msg = "Lookup interrupted."
	case errors.Is(err, driven.ErrJobFailed):
		msg = fmt.Sprintf("Lookup failed: %v", err)
	case errors.Is(err, driven.ErrProtocol):
		msg = fmt.Sprintf("Unexpected response from the identity service: %v", err)
	default:
		msg = fmt.Sprintf("Error triggering phone lookup: %v", err)
	}
	return &ExitError{Code: 1, Message: msg}
}
