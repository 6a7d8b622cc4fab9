package lang

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Fallback is used for any message missing from the configured language.
const Fallback = "en_US"

//go:embed language/*.yml
var builtin embed.FS

// Config selects the message language.
type Config struct {
	// Language is a code such as en_US or pt_BR.
	Language string `mapstructure:"language" default:"en_US"`
	// Dir holds <code>.yml files overriding the built-in ones.
	Dir string `mapstructure:"dir" default:"language"`
}

// Bundle resolves message keys along an ordered chain of tables: the
// configured language from disk, then built in, then the same for en_US.
type Bundle struct {
	language string
	chain    []map[string]string
}

// Load builds the bundle. Missing files are skipped; malformed ones are errors.
func Load(cfg Config) (*Bundle, error) {
	code := cfg.Language
	if code == "" {
		code = Fallback
	}

	codes := []string{code}
	if code != Fallback {
		codes = append(codes, Fallback)
	}

	b := &Bundle{language: Fallback}
	for _, c := range codes {
		found := false
		if cfg.Dir != "" {
			table, err := readTable(os.DirFS(cfg.Dir), c+".yml")
			if err != nil {
				return nil, err
			}
			if table != nil {
				b.chain = append(b.chain, table)
				found = true
			}
		}
		table, err := readTable(builtin, "language/"+c+".yml")
		if err != nil {
			return nil, err
		}
		if table != nil {
			b.chain = append(b.chain, table)
			found = true
		}
		if found && b.language == Fallback {
			b.language = c
		}
	}
	return b, nil
}

func readTable(fsys fs.FS, name string) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, filepath.ToSlash(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read language file %s: %w", name, err)
	}

	table := make(map[string]string)
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse language file %s: %w", name, err)
	}
	return table, nil
}

// Language returns the code that was actually found, en_US when the
// configured one does not exist.
func (b *Bundle) Language() string {
	return b.language
}

// Get returns the message for key, or the key itself when no table has it.
func (b *Bundle) Get(key string) string {
	for _, table := range b.chain {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	return key
}

// Format is Get followed by fmt.Sprintf.
func (b *Bundle) Format(key string, args ...any) string {
	return fmt.Sprintf(b.Get(key), args...)
}
