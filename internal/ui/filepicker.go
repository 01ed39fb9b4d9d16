package ui

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// SelectFiles asks which of files to process. All files start selected.
func SelectFiles(title string, files []string) ([]string, error) {
	selectedFiles := append([]string(nil), files...)
	var options []huh.Option[string]

	for _, file := range files {
		options = append(options, huh.NewOption(file, file).Selected(true))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(title).
				Options(options...).
				Value(&selectedFiles),
		),
	)

	err := form.Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return selectedFiles, nil
}

func Confirm(title string) (bool, error) {
	var ok bool

	err := huh.NewConfirm().
		Title(title).
		Affirmative("Write").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}

	return ok, err
}
