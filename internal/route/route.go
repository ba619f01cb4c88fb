package route

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/header"
)

// Action is what should happen to a file.
type Action string

const (
	ActionMove   Action = "move"
	ActionSkip   Action = "skip"
	ActionIgnore Action = "ignore"
)

// Decision is the routing result for one file. Folder is relative to the
// base the caller moves into. A skip carries Err, wrapping one of
// apperr.ErrMissingProperty or apperr.ErrNoRoutingMatch, and its Kind.
type Decision struct {
	Action   Action `json:"action"`
	Folder   string `json:"folder,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Observed string `json:"observed,omitempty"`
	Err      error  `json:"-"`
}

func move(folder string) Decision {
	return Decision{Action: ActionMove, Folder: folder}
}

func skip(err error, reason, observed string) Decision {
	return Decision{Action: ActionSkip, Kind: apperr.Kind(err), Reason: reason, Observed: observed, Err: err}
}

// Scope prefixes destinations of notes tagged with Tag by Namespace.
type Scope struct {
	Tag       string `yaml:"tag" json:"tag"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// NoteOptions configures NoteRouter.
type NoteOptions struct {
	TypeProperty     string
	TagsProperty     string
	IgnoreTag        string
	QuarantineDir    string
	Scopes           []Scope
	DefaultNamespace string
}

// NoteRouter routes notes by their header.
type NoteRouter struct {
	Rules   Rules
	Options NoteOptions
}

// Decide picks the destination folder for a note.
//
// A note carrying the ignore tag goes to the quarantine folder no matter
// what else it says. Otherwise the first note type value is looked up in
// the rules, prefixed by the namespace of the last matching scope (or the
// default namespace).
func (r NoteRouter) Decide(h *header.Header) Decision {
	o := r.Options
	if o.IgnoreTag != "" && h.HasTag(o.TagsProperty, o.IgnoreTag) {
		return move(o.QuarantineDir)
	}

	namespace := o.DefaultNamespace
	for _, s := range o.Scopes {
		if h.HasTag(o.TagsProperty, s.Tag) {
			namespace = s.Namespace
		}
	}

	v, ok := h.First(o.TypeProperty)
	if !ok {
		return skip(fmt.Errorf("%w: %s", apperr.ErrMissingProperty, o.TypeProperty),
			fmt.Sprintf("Property %s not found", o.TypeProperty), "")
	}
	noteType := header.Unquote(v)
	folder, ok := r.Rules[noteType]
	if !ok {
		return skip(fmt.Errorf("%w: note type %q", apperr.ErrNoRoutingMatch, noteType), "Note type found", noteType)
	}
	if namespace != "" {
		folder = path.Join(namespace, folder)
	}
	return move(folder)
}

// FileRouter routes attachments by lowercase file extension.
type FileRouter struct {
	Rules       Rules
	IgnoreValue string
}

// Decide picks the destination folder for an attachment named name.
func (r FileRouter) Decide(name string) Decision {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return skip(fmt.Errorf("%w: %s has no extension", apperr.ErrNoRoutingMatch, name), "File has no extension", "")
	}
	folder, ok := r.Rules[ext]
	if !ok {
		return skip(fmt.Errorf("%w: extension %q", apperr.ErrNoRoutingMatch, ext), "File extension not found in config file", ext)
	}
	if r.IgnoreValue != "" && folder == r.IgnoreValue {
		return Decision{Action: ActionIgnore}
	}
	return move(folder)
}
