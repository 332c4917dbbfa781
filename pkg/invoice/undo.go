package invoice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrTargetExists is returned when reverting a rename would overwrite a file.
var ErrTargetExists = errors.New("target already exists")

// Revert moves dir/renamed back to dir/original. It never overwrites an
// existing file.
func Revert(dir, original, renamed string) error {
	from := filepath.Join(dir, renamed)
	to := filepath.Join(dir, original)

	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, original)
	}
	if _, err := os.Lstat(from); err != nil {
		return fmt.Errorf("renamed file %s: %w", renamed, err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to revert %s to %s: %w", renamed, original, err)
	}
	return nil
}
