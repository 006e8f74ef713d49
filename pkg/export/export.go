// Package export writes a session's log as a transcript file.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-go-golems/docchat/pkg/conversation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts the format names and their usual file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// FormatForPath guesses the format from a file extension, defaulting to
// markdown.
func FormatForPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatMarkdown
	}
	return f
}

type Transcript struct {
	SessionID  string                   `json:"session_id" yaml:"session_id"`
	Title      string                   `json:"title" yaml:"title"`
	Document   string                   `json:"document,omitempty" yaml:"document,omitempty"`
	Feature    conversation.FeatureMode `json:"feature" yaml:"feature"`
	ExportedAt time.Time                `json:"exported_at" yaml:"exported_at"`
	Messages   []*conversation.Message  `json:"messages" yaml:"messages"`
}

func NewTranscript(session *conversation.Session, feature conversation.FeatureMode, messages []*conversation.Message) *Transcript {
	t := &Transcript{
		Feature:    feature,
		ExportedAt: time.Now(),
		Messages:   messages,
	}
	if session != nil {
		t.SessionID = session.ID
		t.Title = session.Title
		t.Document = session.DocumentName()
	}
	if t.Messages == nil {
		t.Messages = []*conversation.Message{}
	}
	return t
}

func ToJSON(t *Transcript) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

func ToYAML(t *Transcript) ([]byte, error) {
	return yaml.Marshal(t)
}

// FprintMarkdown renders the transcript as a readable markdown document.
// Message contents are written as-is since they often are markdown already.
func FprintMarkdown(w io.Writer, t *Transcript) error {
	title := t.Title
	if title == "" {
		title = "Untitled session"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "- Mode: %s\n", t.Feature.Title())
	if t.Document != "" {
		fmt.Fprintf(&sb, "- Document: %s\n", t.Document)
	}
	fmt.Fprintf(&sb, "- Exported: %s\n", t.ExportedAt.Format(time.RFC3339))

	for _, m := range t.Messages {
		fmt.Fprintf(&sb, "\n## %s", roleHeading(m.Role))
		if !m.Timestamp.IsZero() {
			fmt.Fprintf(&sb, " (%s)", m.Timestamp.Format("2006-01-02 15:04:05"))
		}
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimRight(m.Content, "\n"))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func roleHeading(r conversation.Role) string {
	switch r {
	case conversation.RoleUser:
		return "You"
	case conversation.RoleAssistant:
		return "Assistant"
	case conversation.RoleSystem:
		return "System"
	}
	return string(r)
}

func Write(w io.Writer, t *Transcript, format Format) error {
	var (
		b   []byte
		err error
	)
	switch format {
	case FormatMarkdown:
		return FprintMarkdown(w, t)
	case FormatJSON:
		b, err = ToJSON(t)
		if err == nil {
			b = append(b, '\n')
		}
	case FormatYAML:
		b, err = ToYAML(t)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	if err != nil {
		return errors.Wrapf(err, "could not encode transcript as %s", format)
	}
	_, err = w.Write(b)
	return err
}

// Save writes the transcript to path, picking the format from the extension
// when format is empty.
func Save(path string, t *Transcript, format Format) error {
	if format == "" {
		format = FormatForPath(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}
	if err := Write(f, t, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// DefaultFilename derives a filename from the session title.
func DefaultFilename(t *Transcript, format Format) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '-'
		}
		return -1
	}, t.Title)
	if base == "" {
		base = "transcript"
	}
	ext := map[Format]string{FormatMarkdown: ".md", FormatJSON: ".json", FormatYAML: ".yaml"}[format]
	if ext == "" {
		ext = ".md"
	}
	return base + ext
}
