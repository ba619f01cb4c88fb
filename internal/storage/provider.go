// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/vaultsort/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// Root returns the absolute vault root.
	Root() string
	// List returns the regular, non-hidden files directly inside dir, sorted by name.
	List(dir string) ([]models.FileEntry, error)
	// Walk calls fn for every non-hidden file under dir whose name ends with suffix.
	Walk(dir, suffix string, fn func(models.FileEntry) error) error
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Append appends content to path, creating it when missing.
	Append(path string, content []byte) error
	// Exists reports whether path exists.
	Exists(path string) (bool, error)
	// Move renames oldPath to newPath without overwriting an existing file.
	Move(oldPath, newPath string) error
	// Replace atomically renames src over dst.
	Replace(src, dst string) error
	// Delete removes the file at path.
	Delete(path string) error
}
