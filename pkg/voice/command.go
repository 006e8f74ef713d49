package voice

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ExitNotAllowed is the exit status a speech-to-text command uses to report
// that it was denied microphone access (EX_NOPERM).
const ExitNotAllowed = 77

// CommandRecognizer runs an external speech-to-text command that records one
// utterance and prints its transcript on stdout. The placeholder {lang} in
// the arguments is replaced with the recognition language, which is also
// exported as DOCCHAT_VOICE_LANG.
type CommandRecognizer struct {
	Command string
	Args    []string
}

func NewCommandRecognizer(command string, args ...string) *CommandRecognizer {
	return &CommandRecognizer{Command: command, Args: args}
}

func (c *CommandRecognizer) Available() bool {
	if c == nil || c.Command == "" {
		return false
	}
	_, err := exec.LookPath(c.Command)
	return err == nil
}

func (c *CommandRecognizer) Recognize(ctx context.Context, language string) (<-chan Event, error) {
	if !c.Available() {
		return nil, errors.Errorf("speech-to-text command %q not found", c.Command)
	}

	args := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, strings.ReplaceAll(a, "{lang}", language))
	}
	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Env = append(os.Environ(), "DOCCHAT_VOICE_LANG="+language)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "could not start %s", c.Command)
	}

	events := make(chan Event, 2)
	go func() {
		defer close(events)
		err := cmd.Wait()
		events <- eventFor(ctx, err, stdout.String(), stderr.String())
		events <- Event{Kind: EventEnd}
	}()
	return events, nil
}

func eventFor(ctx context.Context, err error, stdout string, stderr string) Event {
	if ctx.Err() != nil {
		return Event{Kind: EventError, Code: ErrorAborted}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == ExitNotAllowed {
			return Event{Kind: EventError, Code: ErrorNotAllowed}
		}
		log.Debug().Err(err).Str("stderr", strings.TrimSpace(stderr)).Msg("speech-to-text command failed")
		return Event{Kind: EventError, Code: ErrorAudio}
	}
	transcript := strings.TrimSpace(stdout)
	if transcript == "" {
		return Event{Kind: EventError, Code: ErrorNoSpeech}
	}
	return Event{Kind: EventResult, Transcript: transcript}
}
