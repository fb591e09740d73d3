// file: internal/library/errors.go
// version: 1.0.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2d

package library

import "fmt"

// FileSystemError wraps commit-stage filesystem failures. When one is
// returned the source file has not been mutated.
type FileSystemError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }
