package ux

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirm asks a two-way question in the terminal. yes and no label the
// choices.
func Confirm(title, description, yes, no string, defaultYes bool) (bool, error) {
	confirmed := defaultYes

	confirm := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative(yes).
		Negative(no).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}
