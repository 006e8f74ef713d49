package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tcnksm/go-input"
)

// Confirm asks a yes/no question on the controlling terminal.
func Confirm(question string, defaultYes bool) (bool, error) {
	tty_, err := OpenTTY()
	if err != nil {
		return false, errors.Wrap(err, "could not open terminal")
	}
	defer func() {
		if err := tty_.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close tty")
		}
	}()
	return ConfirmWith(tty_, tty_, question, defaultYes)
}

func ConfirmWith(r io.Reader, w io.Writer, question string, defaultYes bool) (bool, error) {
	ui := &input.UI{
		Writer: w,
		Reader: r,
	}

	def := "n"
	if defaultYes {
		def = "y"
	}
	answer, err := ui.Ask(question+" [y/n]", &input.Options{
		Default:  def,
		Required: true,
		Loop:     true,
		ValidateFunc: func(answer string) error {
			switch strings.ToLower(answer) {
			case "y", "yes", "n", "no":
				return nil
			default:
				return fmt.Errorf("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		return false, errors.Wrap(err, "could not read answer")
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
