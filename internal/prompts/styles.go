package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vrenamer/internal/verrors"
)

// allowedLanguages is the closed set original_source/naming/styles.py
// validates StyleDefinition.language against.
var allowedLanguages = map[string]bool{"zh": true, "en": true}

// StyleDefinition is one naming style, loaded from the style config file.
type StyleDefinition struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Language       string   `yaml:"language"`
	Examples       []string `yaml:"examples"`
	PromptTemplate string   `yaml:"prompt_template"`
}

// StyleFileConfig is the on-disk shape of the style configuration tree:
// a map of style id -> definition, plus defaults.
type StyleFileConfig struct {
	Styles  map[string]StyleDefinition `yaml:"styles"`
	Default DefaultStyleConfig         `yaml:"default"`
}

// DefaultStyleConfig mirrors original_source/naming/styles.py's
// DefaultConfig.
type DefaultStyleConfig struct {
	SelectedStyles     []string `yaml:"selected_styles"`
	CandidatesPerStyle int      `yaml:"candidates_per_style"`
	TotalCandidates    int      `yaml:"total_candidates"`
	MaxLength          int      `yaml:"max_length"`
}

// StyleStore is the loaded, validated style configuration.
type StyleStore struct {
	cfg StyleFileConfig
}

// LoadStyles reads and validates a style config file.
func LoadStyles(path string) (*StyleStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &verrors.ConfigError{Detail: fmt.Sprintf("read style config %s", path), Cause: err}
	}
	var cfg StyleFileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &verrors.ConfigError{Detail: fmt.Sprintf("parse style config %s", path), Cause: err}
	}
	for id, def := range cfg.Styles {
		if def.Language != "" && !allowedLanguages[def.Language] {
			return nil, &verrors.ConfigError{Detail: fmt.Sprintf("style %q has unsupported language %q", id, def.Language)}
		}
	}
	if cfg.Default.MaxLength <= 0 {
		cfg.Default.MaxLength = 80
	}
	if cfg.Default.CandidatesPerStyle <= 0 {
		cfg.Default.CandidatesPerStyle = 1
	}
	if cfg.Default.TotalCandidates <= 0 {
		cfg.Default.TotalCandidates = 5
	}
	return &StyleStore{cfg: cfg}, nil
}

// Get returns the named style, or ok=false if it is not defined.
func (s *StyleStore) Get(id string) (StyleDefinition, bool) {
	def, ok := s.cfg.Styles[id]
	return def, ok
}

// ValidateStyles filters ids down to those actually present in the store,
// matching original_source's validate_styles (silently drops unknowns
// rather than failing the whole naming pass for one bad id).
func (s *StyleStore) ValidateStyles(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := s.cfg.Styles[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// DefaultStyleIDs returns the configured default style id list.
func (s *StyleStore) DefaultStyleIDs() []string {
	return s.cfg.Default.SelectedStyles
}

func (s *StyleStore) MaxLength() int          { return s.cfg.Default.MaxLength }
func (s *StyleStore) CandidatesPerStyle() int { return s.cfg.Default.CandidatesPerStyle }
func (s *StyleStore) TotalCandidates() int    { return s.cfg.Default.TotalCandidates }
