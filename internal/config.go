package internal

import (
	"errors"
	"log/slog"
	"path"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultsort/internal/route"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Vault       VaultConfig       `yaml:"vault"`
	Notes       NotesConfig       `yaml:"notes"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Task        TaskConfig        `yaml:"task"`
	Edit        EditConfig        `yaml:"edit"`
	Watch       WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.Attachments.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// VaultConfig holds the vault root and the folders vaultsort writes into.
type VaultConfig struct {
	Path     string `yaml:"path"`
	InboxDir string `yaml:"inbox_dir"`
	LogDir   string `yaml:"log_dir"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.InboxDir, validation.Required),
		validation.Field(&c.LogDir, validation.Required),
	)
}

// NotesConfig controls the note pass.
type NotesConfig struct {
	SourceDir        string        `yaml:"source_dir"`
	RulesFile        string        `yaml:"rules_file"`
	TypeProperty     string        `yaml:"type_property"`
	TagsProperty     string        `yaml:"tags_property"`
	IgnoreTag        string        `yaml:"ignore_tag"`
	QuarantineDir    string        `yaml:"quarantine_dir"`
	ReadLineLimit    int           `yaml:"read_line_limit"`
	Scopes           []route.Scope `yaml:"scopes"`
	DefaultNamespace string        `yaml:"default_namespace"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.SourceDir, validation.Required),
		validation.Field(&c.RulesFile, validation.Required),
		validation.Field(&c.TypeProperty, validation.Required),
		validation.Field(&c.TagsProperty, validation.Required),
		validation.Field(&c.QuarantineDir, validation.Required),
		validation.Field(&c.ReadLineLimit, validation.Min(0)),
	); err != nil {
		return err
	}
	if path.Clean(c.SourceDir) == path.Clean(c.QuarantineDir) {
		return errors.New("notes: source_dir and quarantine_dir must differ")
	}
	for _, s := range c.Scopes {
		if err := validation.ValidateStruct(&s,
			validation.Field(&s.Tag, validation.Required),
			validation.Field(&s.Namespace, validation.Required),
		); err != nil {
			return err
		}
	}
	return nil
}

// Router builds the note router for rules.
func (c *NotesConfig) Router(rules route.Rules) route.NoteRouter {
	return route.NoteRouter{
		Rules: rules,
		Options: route.NoteOptions{
			TypeProperty:     c.TypeProperty,
			TagsProperty:     c.TagsProperty,
			IgnoreTag:        c.IgnoreTag,
			QuarantineDir:    c.QuarantineDir,
			Scopes:           c.Scopes,
			DefaultNamespace: c.DefaultNamespace,
		},
	}
}

// AttachmentsConfig controls the attachment pass.
type AttachmentsConfig struct {
	SourceDir   string `yaml:"source_dir"`
	RulesFile   string `yaml:"rules_file"`
	IgnoreValue string `yaml:"ignore_value"`
}

// Validate validates the attachments configuration.
func (c *AttachmentsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SourceDir, validation.Required),
		validation.Field(&c.RulesFile, validation.Required),
	)
}

// Router builds the attachment router for rules.
func (c *AttachmentsConfig) Router(rules route.Rules) route.FileRouter {
	return route.FileRouter{Rules: rules, IgnoreValue: c.IgnoreValue}
}

// TaskConfig controls the generated follow-up task.
type TaskConfig struct {
	Title string `yaml:"title"`
}

// EditConfig controls bulk edits.
type EditConfig struct {
	// AutoAccept applies staged replacements without asking.
	AutoAccept bool `yaml:"auto_accept"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(100*time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with the default vault layout.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Vault: VaultConfig{
			Path:     "./vault",
			InboxDir: "0_inbox",
			LogDir:   "zc_script_logs",
		},
		Notes: NotesConfig{
			SourceDir:     "1_to_organize",
			RulesFile:     "za_vault_assets/script_configs/note_types.md",
			TypeProperty:  "note_type",
			TagsProperty:  "tags",
			IgnoreTag:     "#gitignored",
			QuarantineDir: "zb_gitignored",
		},
		Attachments: AttachmentsConfig{
			SourceDir:   "za_vault_assets",
			RulesFile:   "za_vault_assets/script_configs/file_types.md",
			IgnoreValue: "ignore_file",
		},
		Task: TaskConfig{
			Title: "Check files not moved",
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}
