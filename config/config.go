// Package config implements the sparse, layered configuration: built-in
// defaults overridden by user, project and session layers. Every field of a
// layer is optional; merging lets the higher layer win per field, merges maps
// by key and replaces lists.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// LineEndingSetting is the configured default line ending for new files.
type LineEndingSetting string

const (
	LineEndingAuto LineEndingSetting = "auto"
	LineEndingLF   LineEndingSetting = "lf"
	LineEndingCRLF LineEndingSetting = "crlf"
	LineEndingCR   LineEndingSetting = "cr"
)

// LanguageConfig is the per-extension override block.
type LanguageConfig struct {
	TabSize                *int  `json:"tab_size,omitempty"`
	AutoIndent             *bool `json:"auto_indent,omitempty"`
	TrimTrailingWhitespace *bool `json:"trim_trailing_whitespace_on_save,omitempty"`
	EnsureFinalNewline     *bool `json:"ensure_final_newline_on_save,omitempty"`
}

// LSPConfig is the per-language server block. The core only carries it; the
// LSP collaborator consumes it.
type LSPConfig struct {
	Command []string `json:"command,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
}

// WarningsConfig bounds the warning log.
type WarningsConfig struct {
	MaxEntries *int `json:"max_entries,omitempty"`
}

// FileExplorerConfig and TerminalConfig belong to out-of-scope UI surfaces;
// the core carries them through the layering so those collaborators see the
// same merge semantics.
type FileExplorerConfig struct {
	ShowHidden     *bool    `json:"show_hidden,omitempty"`
	FollowSymlinks *bool    `json:"follow_symlinks,omitempty"`
	Exclude        []string `json:"exclude,omitempty"`
}

type TerminalConfig struct {
	Shell      *string `json:"shell,omitempty"`
	Scrollback *int    `json:"scrollback,omitempty"`
}

// Config is one sparse layer. nil means "defer to the lower layer".
type Config struct {
	TabSize                *int               `json:"tab_size,omitempty"`
	AutoIndent             *bool              `json:"auto_indent,omitempty"`
	LineNumbers            *bool              `json:"line_numbers,omitempty"`
	RelativeLineNumbers    *bool              `json:"relative_line_numbers,omitempty"`
	ScrollOffset           *int               `json:"scroll_offset,omitempty"`
	SyntaxHighlighting     *bool              `json:"syntax_highlighting,omitempty"`
	LineWrap               *bool              `json:"line_wrap,omitempty"`
	LargeFileThresholdB    *int               `json:"large_file_threshold_bytes,omitempty"`
	EstimatedLineLength    *int               `json:"estimated_line_length,omitempty"`
	DefaultLineEnding      *LineEndingSetting `json:"default_line_ending,omitempty"`
	TrimTrailingWhitespace *bool              `json:"trim_trailing_whitespace_on_save,omitempty"`
	EnsureFinalNewline     *bool              `json:"ensure_final_newline_on_save,omitempty"`
	MouseHoverEnabled      *bool              `json:"mouse_hover_enabled,omitempty"`
	MouseHoverDelayMs      *int               `json:"mouse_hover_delay_ms,omitempty"`
	DoubleClickTimeMs      *int               `json:"double_click_time_ms,omitempty"`

	Warnings     *WarningsConfig           `json:"warnings,omitempty"`
	FileExplorer *FileExplorerConfig       `json:"file_explorer,omitempty"`
	Terminal     *TerminalConfig           `json:"terminal,omitempty"`
	Languages    map[string]LanguageConfig `json:"languages,omitempty"`
	LSP          map[string]LSPConfig      `json:"lsp,omitempty"`

	// Keybindings are validated at load; invalid entries are reported once
	// and dropped, falling back to the defaults.
	Keybindings []KeybindingConfig `json:"keybindings,omitempty"`
}

// KeybindingConfig is the serialized form of one binding.
type KeybindingConfig struct {
	Keys     string   `json:"keys"`
	Action   string   `json:"action"`
	Contexts []string `json:"contexts,omitempty"`
}

// Default returns the built-in base layer with every scalar field set. Of
// the nested sections only Warnings is filled; the others stay nil.
func Default() *Config {
	return &Config{
		TabSize:                intp(4),
		AutoIndent:             boolp(true),
		LineNumbers:            boolp(true),
		RelativeLineNumbers:    boolp(false),
		ScrollOffset:           intp(3),
		SyntaxHighlighting:     boolp(true),
		LineWrap:               boolp(true),
		LargeFileThresholdB:    intp(1 << 20),
		EstimatedLineLength:    intp(60),
		DefaultLineEnding:      lep(LineEndingAuto),
		TrimTrailingWhitespace: boolp(false),
		EnsureFinalNewline:     boolp(false),
		MouseHoverEnabled:      boolp(true),
		MouseHoverDelayMs:      intp(500),
		DoubleClickTimeMs:      intp(400),
		Warnings:               &WarningsConfig{MaxEntries: intp(100)},
	}
}

// MergeFrom overlays higher on c: higher wins on every set field, maps merge
// by key with the higher layer winning per key, lists are replaced.
func (c *Config) MergeFrom(higher *Config) {
	if higher == nil {
		return
	}
	mergeField(&c.TabSize, higher.TabSize)
	mergeField(&c.AutoIndent, higher.AutoIndent)
	mergeField(&c.LineNumbers, higher.LineNumbers)
	mergeField(&c.RelativeLineNumbers, higher.RelativeLineNumbers)
	mergeField(&c.ScrollOffset, higher.ScrollOffset)
	mergeField(&c.SyntaxHighlighting, higher.SyntaxHighlighting)
	mergeField(&c.LineWrap, higher.LineWrap)
	mergeField(&c.LargeFileThresholdB, higher.LargeFileThresholdB)
	mergeField(&c.EstimatedLineLength, higher.EstimatedLineLength)
	mergeField(&c.DefaultLineEnding, higher.DefaultLineEnding)
	mergeField(&c.TrimTrailingWhitespace, higher.TrimTrailingWhitespace)
	mergeField(&c.EnsureFinalNewline, higher.EnsureFinalNewline)
	mergeField(&c.MouseHoverEnabled, higher.MouseHoverEnabled)
	mergeField(&c.MouseHoverDelayMs, higher.MouseHoverDelayMs)
	mergeField(&c.DoubleClickTimeMs, higher.DoubleClickTimeMs)

	if higher.Warnings != nil {
		if c.Warnings == nil {
			c.Warnings = &WarningsConfig{}
		}
		mergeField(&c.Warnings.MaxEntries, higher.Warnings.MaxEntries)
	}

	if higher.FileExplorer != nil {
		if c.FileExplorer == nil {
			c.FileExplorer = &FileExplorerConfig{}
		}
		mergeField(&c.FileExplorer.ShowHidden, higher.FileExplorer.ShowHidden)
		mergeField(&c.FileExplorer.FollowSymlinks, higher.FileExplorer.FollowSymlinks)
		if higher.FileExplorer.Exclude != nil {
			c.FileExplorer.Exclude = higher.FileExplorer.Exclude
		}
	}

	if higher.Terminal != nil {
		if c.Terminal == nil {
			c.Terminal = &TerminalConfig{}
		}
		mergeField(&c.Terminal.Shell, higher.Terminal.Shell)
		mergeField(&c.Terminal.Scrollback, higher.Terminal.Scrollback)
	}

	if higher.Languages != nil {
		if c.Languages == nil {
			c.Languages = map[string]LanguageConfig{}
		}
		for ext, hl := range higher.Languages {
			merged := c.Languages[ext]
			mergeField(&merged.TabSize, hl.TabSize)
			mergeField(&merged.AutoIndent, hl.AutoIndent)
			mergeField(&merged.TrimTrailingWhitespace, hl.TrimTrailingWhitespace)
			mergeField(&merged.EnsureFinalNewline, hl.EnsureFinalNewline)
			c.Languages[ext] = merged
		}
	}

	if higher.LSP != nil {
		if c.LSP == nil {
			c.LSP = map[string]LSPConfig{}
		}
		for lang, hl := range higher.LSP {
			merged := c.LSP[lang]
			if hl.Command != nil {
				merged.Command = hl.Command
			}
			mergeField(&merged.Enabled, hl.Enabled)
			c.LSP[lang] = merged
		}
	}

	// lists replace
	if higher.Keybindings != nil {
		c.Keybindings = higher.Keybindings
	}
}

func mergeField[T any](lower **T, higher *T) {
	if higher != nil {
		*lower = higher
	}
}

// Load reads one sparse layer from a JSON file. A missing file is an empty
// layer, not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return &c, nil
}

// Resolve merges the layers lowest-precedence first over the built-in
// defaults.
func Resolve(layers ...*Config) *Config {
	out := Default()
	for _, layer := range layers {
		out.MergeFrom(layer)
	}
	return out
}

// ForLanguage resolves the effective save options for a file extension.
func (c *Config) ForLanguage(ext string) (trim, finalNewline bool, tabSize int) {
	trim = *c.TrimTrailingWhitespace
	finalNewline = *c.EnsureFinalNewline
	tabSize = *c.TabSize
	if lc, ok := c.Languages[ext]; ok {
		if lc.TrimTrailingWhitespace != nil {
			trim = *lc.TrimTrailingWhitespace
		}
		if lc.EnsureFinalNewline != nil {
			finalNewline = *lc.EnsureFinalNewline
		}
		if lc.TabSize != nil {
			tabSize = *lc.TabSize
		}
	}
	return trim, finalNewline, tabSize
}

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func lep(v LineEndingSetting) *LineEndingSetting { return &v }
