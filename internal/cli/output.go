package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess     = 0 // Successful execution
	ExitFailure     = 1 // Server rejected the request or an unexpected error
	ExitUsage       = 2 // Invalid flags or arguments
	ExitAuth        = 3 // Missing, invalid or expired token
	ExitNotFound    = 4 // Referenced row does not exist
	ExitUnavailable = 5 // Server could not be reached
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error. API errors map by code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, domainerrors.ErrUnauthorized), errors.Is(err, domainerrors.ErrTokenExpired):
		return ExitAuth
	case errors.Is(err, domainerrors.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domainerrors.ErrUnavailable):
		return ExitUnavailable
	case errors.Is(err, domainerrors.ErrValidation):
		return ExitUsage
	}
	return ExitFailure
}

// printer renders results as text tables or JSON.
type printer struct {
	format string
	w      io.Writer
}

func (o *RootOptions) printer(w io.Writer) *printer {
	return &printer{format: o.Format, w: w}
}

func (p *printer) json() bool { return p.format == "json" }

// value writes v as indented JSON.
func (p *printer) value(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// line writes a text message, or v in JSON mode.
func (p *printer) line(v any, format string, args ...any) error {
	if p.json() {
		return p.value(v)
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func (p *printer) bookmarks(list []domain.BookmarkWithTags) error {
	if p.json() {
		return p.value(list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(p.w, "No bookmarks.")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tURL\tTAGS\tADDED")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.URL, tagLabels(b.Tags), humanize.Time(b.CreatedAt))
	}
	return tw.Flush()
}

func (p *printer) tags(list []domain.Tag) error {
	if p.json() {
		return p.value(list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(p.w, "No tags.")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, tagLabel(t), t.Color)
	}
	return tw.Flush()
}

// tagLabel renders a tag name in its own color. Styles degrade to plain
// text when the output is not a terminal.
func tagLabel(t domain.Tag) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render(t.Name)
}

func tagLabels(tags []domain.Tag) string {
	if len(tags) == 0 {
		return "-"
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = tagLabel(t)
	}
	return strings.Join(names, ", ")
}
