package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteMarkdown writes the report as UTF-8, creating parent directories.
func WriteMarkdown(path, content string) error {
	if path == "" {
		return fmt.Errorf("report path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
