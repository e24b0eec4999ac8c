// Package prompts loads per-subtask and per-style prompt templates from a
// static YAML configuration tree, the way
// original_source/llm/prompts.py (PromptLoader) and
// original_source/naming/styles.py (NamingStyleConfig) do. The store is
// read-only once loaded.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"vrenamer/internal/verrors"
)

// PromptFile is one subtask or style prompt definition on disk.
type PromptFile struct {
	SystemPrompt       string  `yaml:"system_prompt"`
	UserPromptTemplate string  `yaml:"user_prompt_template"`
	ResponseFormat     string  `yaml:"response_format"`
	Temperature        float64 `yaml:"temperature"`
	MaxTokens          int     `yaml:"max_tokens"`
}

// Store is an immutable, loaded-at-startup collection of prompt files
// keyed by their logical name (subtask id or style id).
type Store struct {
	files map[string]PromptFile
}

// NewInMemoryStore builds a Store directly from already-parsed prompt
// files, bypassing disk I/O. Used by tests that need a Store without a
// filesystem fixture.
func NewInMemoryStore(files map[string]PromptFile) *Store {
	return &Store{files: files}
}

// Load reads every *.yaml file in dir into the store, keyed by filename
// without extension.
func Load(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &verrors.ConfigError{Detail: fmt.Sprintf("read prompts dir %s", dir), Cause: err}
	}

	files := make(map[string]PromptFile)
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &verrors.ConfigError{Detail: fmt.Sprintf("read prompt file %s", path), Cause: err}
		}
		var pf PromptFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, &verrors.ConfigError{Detail: fmt.Sprintf("parse prompt file %s", path), Cause: err}
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		files[name] = pf
	}
	return &Store{files: files}, nil
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// Names returns every loaded prompt name, sorted for deterministic iteration
// in callers that don't have their own explicit order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named prompt file, or a ConfigError if it was never
// loaded.
func (s *Store) Get(name string) (PromptFile, error) {
	pf, ok := s.files[name]
	if !ok {
		return PromptFile{}, &verrors.ConfigError{Detail: fmt.Sprintf("prompt %q not found", name)}
	}
	return pf, nil
}

// Render substitutes {placeholder} tokens in the user prompt template with
// values from vars. A template placeholder absent from vars is a
// ConfigError, matching original_source's KeyError-to-ConfigError mapping
// in build_prompt.
func Render(pf PromptFile, vars map[string]string) (system, user string, err error) {
	if pf.UserPromptTemplate == "" {
		return "", "", &verrors.ConfigError{Detail: "prompt has no user_prompt_template"}
	}

	rendered, missing := substitute(pf.UserPromptTemplate, vars)
	if missing != "" {
		return "", "", &verrors.ConfigError{Detail: fmt.Sprintf("missing template variable %q", missing)}
	}
	return pf.SystemPrompt, rendered, nil
}

// substitute replaces every {name} token found in template using vars,
// where name is made of letters, digits and underscores; any other brace
// text (such as a literal JSON example) is copied unchanged. It returns
// the first placeholder name with no entry in vars, if any.
func substitute(template string, vars map[string]string) (string, string) {
	var b strings.Builder
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := strings.IndexByte(template[i:], '}')
			if end == -1 {
				b.WriteString(template[i:])
				break
			}
			name := template[i+1 : i+end]
			if !isPlaceholderName(name) {
				b.WriteByte('{')
				i++
				continue
			}
			val, ok := vars[name]
			if !ok {
				return "", name
			}
			b.WriteString(val)
			i += end + 1
			continue
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String(), ""
}

func isPlaceholderName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
