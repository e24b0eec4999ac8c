package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vrenamer/internal/verrors"
)

// SubtaskSpec is one static, configuration-loaded classification question.
type SubtaskSpec struct {
	ID         string
	PromptFile string
	Enabled    bool
	BatchSize  int // 0 means "use the analysis-wide default"
}

type tasksFile struct {
	Tasks map[string]struct {
		Enabled    *bool  `yaml:"enabled"`
		BatchSize  int    `yaml:"batch_size"`
		PromptFile string `yaml:"prompt_file"`
	} `yaml:"tasks"`
	// Order preserves the configuration-file declaration order, since Go's
	// yaml map decoding does not guarantee iteration order and the report
	// must iterate in configuration order per the scheduling contract.
	Order []string `yaml:"order"`
}

// LoadSubtasks reads the tasks config file at path, matching
// original_source/services/analysis.py's _load_tasks_config shape:
// {tasks: {id: {enabled, batch_size, prompt_file}}}. If no explicit
// top-level "order" key is present, declaration order is recovered by a
// second, order-preserving decode pass over the raw YAML document.
func LoadSubtasks(path string) ([]SubtaskSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &verrors.ConfigError{Detail: fmt.Sprintf("analysis tasks config not found: %s", path), Cause: err}
	}

	var tf tasksFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, &verrors.ConfigError{Detail: fmt.Sprintf("parse tasks config %s", path), Cause: err}
	}
	if tf.Tasks == nil {
		return nil, &verrors.ConfigError{Detail: fmt.Sprintf("invalid tasks config format in %s: missing 'tasks' key", path)}
	}

	order := tf.Order
	if len(order) == 0 {
		order, err = declarationOrder(data)
		if err != nil {
			return nil, &verrors.ConfigError{Detail: fmt.Sprintf("determine task order in %s", path), Cause: err}
		}
	}

	specs := make([]SubtaskSpec, 0, len(order))
	for _, id := range order {
		t, ok := tf.Tasks[id]
		if !ok {
			continue
		}
		if t.PromptFile == "" {
			return nil, &verrors.ConfigError{Detail: fmt.Sprintf("task %s missing prompt_file in config", id)}
		}
		enabled := true
		if t.Enabled != nil {
			enabled = *t.Enabled
		}
		specs = append(specs, SubtaskSpec{
			ID:         id,
			PromptFile: t.PromptFile,
			Enabled:    enabled,
			BatchSize:  t.BatchSize,
		})
	}
	return specs, nil
}

// declarationOrder walks the raw YAML document node tree to recover the
// literal key order under tasks:, since a plain map[string]T decode loses
// it.
func declarationOrder(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	tasksNode := findMappingValue(root, "tasks")
	if tasksNode == nil {
		return nil, fmt.Errorf("no tasks mapping found")
	}
	var order []string
	for i := 0; i < len(tasksNode.Content); i += 2 {
		order = append(order, tasksNode.Content[i].Value)
	}
	return order, nil
}

func findMappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// Enabled filters specs to just the enabled ones, preserving order.
func Enabled(specs []SubtaskSpec) []SubtaskSpec {
	var out []SubtaskSpec
	for _, s := range specs {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
