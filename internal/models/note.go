// Package models defines the domain types shared across vaultsort packages.
package models

import "time"

// FileEntry describes one regular file in the vault.
type FileEntry struct {
	Path      string    `json:"path"` // relative to vault root, slash separated
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
