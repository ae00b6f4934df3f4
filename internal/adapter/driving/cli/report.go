package cli

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/realyou/internal/application"
	"github.com/ericfisherdev/realyou/internal/domain/model"
)

const banner = `
    ************************************
    *                                  *
    *         Real You?                *
    *                                  *
    ************************************
`

const packageBox = `
    ***********************************************
    *                                             *
    *  You have to buy package for this services  *
    *                                             *
    ***********************************************
`

// progressWidth is the bar width in cells.
const progressWidth = 20

// displayTimeLayout renders account expiration dates.
const displayTimeLayout = "2006-01-02 15:04:05.000 MST"

// Renderer writes user-facing output. Strings that came from the remote
// service are stripped of markup before printing.
type Renderer struct {
	out    io.Writer
	policy *bluemonday.Policy

	title   *color.Color
	label   *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// NewRenderer creates a Renderer writing to out. When colorize is false no
// escape sequences are written, regardless of the terminal.
func NewRenderer(out io.Writer, colorize bool) *Renderer {
	r := &Renderer{
		out:     out,
		policy:  bluemonday.StrictPolicy(),
		title:   color.New(color.FgCyan, color.Bold),
		label:   color.New(color.Bold),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{r.title, r.label, r.success, r.warn, r.fail} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// clean removes markup from a remote-supplied string. The sanitizer escapes
// entities in what it keeps, which are decoded again for terminal output.
func (r *Renderer) clean(s string) string {
	return html.UnescapeString(r.policy.Sanitize(s))
}

func (r *Renderer) cleanAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, r.clean(s))
	}
	return out
}

func (r *Renderer) field(name, value string) {
	r.label.Fprintf(r.out, "%s:", name)
	fmt.Fprintf(r.out, " %s\n", value)
}

// Banner prints the intro banner.
func (r *Renderer) Banner() {
	r.title.Fprint(r.out, banner)
	fmt.Fprintln(r.out, "A tool to validate phone numbers using the IRBIS API.")
}

// Success prints a positive status line.
func (r *Renderer) Success(msg string) {
	r.success.Fprintln(r.out, msg)
}

// Notice prints a neutral hint.
func (r *Renderer) Notice(msg string) {
	r.warn.Fprintln(r.out, msg)
}

// Failure prints an error line.
func (r *Renderer) Failure(msg string) {
	r.fail.Fprintln(r.out, msg)
}

// PackageRequired prints the business-rejection box.
func (r *Renderer) PackageRequired() {
	r.fail.Fprint(r.out, packageBox)
}

// Account prints the account status returned by a successful key validation.
func (r *Renderer) Account(info *model.AccountInfo) {
	if info == nil {
		return
	}
	fmt.Fprintln(r.out)
	r.field("Balance", strings.TrimSpace(strconv.FormatFloat(info.Balance, 'f', -1, 64)+" "+r.clean(info.Currency)))
	r.field("Credits", strconv.FormatInt(info.Credits, 10))
	r.field("Expiration Date", info.ExpiresAt.Format(displayTimeLayout))
	r.field("Status", r.clean(info.Status))
}

// Commands prints the command summary.
func (r *Renderer) Commands() {
	fmt.Fprint(r.out, `
Available Commands:
  -h              Help
  -k APIKEY       Replace API key
  -s              Show current API key
  -p PHONE        Phone to search
  -i {score,all}  Type of information to retrieve
  -d              Debug mode
`)
}

// Facts prints the normalized lookup result.
func (r *Renderer) Facts(f model.Facts) {
	fmt.Fprintln(r.out)
	if f.Mode == model.InfoModeAll {
		r.field("Names", strings.Join(r.cleanAll(f.Names), ", "))
		r.field("Emails", strings.Join(r.cleanAll(f.Emails), ", "))
		r.field("LinkedIn Profiles", strings.Join(r.cleanAll(f.LinkedInIDs), ", "))
		r.field("Birthdays", strings.Join(r.cleanAll(f.Birthdays), ", "))
		r.field("Facebook IDs", strings.Join(r.cleanAll(f.FacebookIDs), ", "))
	}

	if f.Verifier == nil {
		r.Notice("No verifier data found.")
		return
	}

	classification := r.clean(f.Verifier.Classification)
	if classification == "" {
		classification = "unknown"
	}
	r.label.Fprint(r.out, "Real Person:")
	fmt.Fprint(r.out, " ")
	r.classificationColor(classification).Fprintln(r.out, classification)

	score := f.Verifier.ScoreText()
	if score == "" {
		score = "unknown"
	}
	r.field("Score", score)
}

func (r *Renderer) classificationColor(c string) *color.Color {
	switch strings.ToUpper(c) {
	case "REAL":
		return r.success
	case "FAKE":
		return r.fail
	default:
		return r.warn
	}
}

// Raw prints the unprocessed result payload.
func (r *Renderer) Raw(v model.Value) {
	data, err := v.MarshalJSON()
	if err != nil {
		r.Failure(fmt.Sprintf("cannot render raw data: %v", err))
		return
	}
	r.label.Fprint(r.out, "Data received for processing:")
	fmt.Fprintf(r.out, " %s\n", data)
}

// Progress draws a single-line progress bar for a waiting phase. It has the
// signature of application.ProgressFunc.
func (r *Renderer) Progress(phase application.Phase, step, total int) {
	if total <= 0 {
		return
	}
	filled := step * progressWidth / total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled)
	fmt.Fprintf(r.out, "\r%s: [%s] %d/%ds", phase, bar, step, total)
	if step >= total {
		fmt.Fprintln(r.out)
	}
}
