// Package clipboard copies translations to the system clipboard.
package clipboard

import (
	"fmt"

	cb "github.com/atotto/clipboard"
)

// Copy writes text to the system clipboard. Empty text is ignored.
func Copy(text string) error {
	if text == "" {
		return nil
	}
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

func Read() (string, error) {
	return cb.ReadAll()
}
