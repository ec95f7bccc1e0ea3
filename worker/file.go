package worker

import (
	"fmt"
	"os"

	"github.com/andys/collator/table"
)

// FileTarget overwrites a CSV file, without a header row, on every write.
type FileTarget struct {
	Path string
}

// Name returns the file path.
func (f *FileTarget) Name() string {
	return f.Path
}

// WriteTable truncates the file and writes t's rows to it.
func (f *FileTarget) WriteTable(t *table.Table) error {
	file, err := os.Create(f.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := table.Encode(file, t, false); err != nil {
		file.Close()
		return fmt.Errorf("failed to write output file %s: %w", f.Path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file %s: %w", f.Path, err)
	}
	return nil
}
