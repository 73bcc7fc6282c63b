package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Copier writes text to the system clipboard. The indirection exists so
// the TUI can swap in a fake during tests.
type Copier interface {
	Copy(text string) error
}

type systemCopier struct{}

func System() Copier {
	return systemCopier{}
}

func (systemCopier) Copy(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
