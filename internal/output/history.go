package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// AppendHistory appends s as one JSON line to path. An exclusive lock on
// path+".lock" keeps concurrent runs from interleaving their lines.
func AppendHistory(path string, s Summary) error {
	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock history file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write history file: %w", err)
	}
	return f.Close()
}
