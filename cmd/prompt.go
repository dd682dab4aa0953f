package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errCancelled = errors.New("cancelled")

// confirm asks a yes/no question unless the user already approved with a flag.
func confirm(label string, approved bool) error {
	if approved {
		return nil
	}

	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return err
	}
	if answer != PromptYes {
		return errCancelled
	}
	return nil
}

// ask reads a line of text, offering def as an editable default.
func ask(label, def string, required bool) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: def != "",
	}
	if required {
		prompt.Validate = func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", strings.ToLower(label))
			}
			return nil
		}
	}

	answer, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func askSecret(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value is required")
			}
			return nil
		},
	}

	answer, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
