// Package route decides where a note or attachment belongs.
package route

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/storage"
)

// Rules maps a discriminator (note type or file extension) to a folder.
type Rules map[string]string

// LoadRules reads a JSON object of discriminator -> folder from path
// (relative to the vault root). With lowerKeys set, keys are lowercased so
// extension lookups are case-insensitive. Any failure here aborts a run.
func LoadRules(store storage.Provider, path string, lowerKeys bool) (Rules, error) {
	data, err := store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: routing rules: %w", apperr.ErrConfig, err)
	}
	return ParseRules(data, lowerKeys)
}

// ParseRules decodes and validates a routing rule document.
func ParseRules(data []byte, lowerKeys bool) (Rules, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: routing rules are not a JSON object of strings: %w", apperr.ErrConfig, err)
	}
	out := make(Rules, len(raw))
	for k, v := range raw {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: routing rule %q has an empty folder", apperr.ErrConfig, k)
		}
		if lowerKeys {
			k = strings.ToLower(k)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// Keys returns the discriminators in sorted order.
func (r Rules) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
