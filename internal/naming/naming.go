// Package naming turns an AnalysisReport into sanitized, style-tagged
// filename candidates, grounded on original_source/naming/generator.py
// and styles.py: one generate() call per style, parsed as {names: [...]},
// sanitized, capped.
package naming

import (
	"context"
	"fmt"
	"strings"

	"vrenamer/internal/analysis"
	"vrenamer/internal/jsonloose"
	"vrenamer/internal/llmgateway"
	"vrenamer/internal/prompts"
)

// NameCandidate is one sanitized, style-tagged proposed filename stem.
type NameCandidate struct {
	StyleID   string
	StyleName string
	Filename  string
	Language  string
}

const illegalChars = `<>:"/\|?*`

// Engine generates naming candidates against a fixed gateway and style
// store.
type Engine struct {
	Gateway llmgateway.Gateway
	Styles  *prompts.StyleStore
}

func NewEngine(gw llmgateway.Gateway, styles *prompts.StyleStore) *Engine {
	return &Engine{Gateway: gw, Styles: styles}
}

// Candidates generates up to perStyle candidates per style id (defaults to
// the store's configured values when styleIDs/perStyle are zero values),
// sanitizes and drops empties, then caps the combined list to the store's
// total_candidates.
func (e *Engine) Candidates(ctx context.Context, report *analysis.AnalysisReport, styleIDs []string, perStyle int) ([]NameCandidate, error) {
	if len(styleIDs) == 0 {
		styleIDs = e.Styles.DefaultStyleIDs()
	}
	styleIDs = e.Styles.ValidateStyles(styleIDs)

	if perStyle <= 0 {
		perStyle = e.Styles.CandidatesPerStyle()
	}
	maxLength := e.Styles.MaxLength()

	var all []NameCandidate
	for _, id := range styleIDs {
		def, ok := e.Styles.Get(id)
		if !ok {
			continue
		}

		systemPrompt := buildSystemPrompt(def, perStyle)
		userPrompt := buildUserPrompt(report)

		resp, err := e.Gateway.Generate(ctx, systemPrompt+"\n\n"+userPrompt, llmgateway.Opts{
			JSON:        true,
			Temperature: 0.7,
		})
		if err != nil {
			// A style call failure costs only that style's candidates,
			// matching the per-style isolation the analysis engine applies
			// to batches: naming degrades, it does not abort the run.
			continue
		}

		names := parseNames(resp)
		if len(names) > perStyle {
			names = names[:perStyle]
		}

		for _, name := range names {
			clean := Sanitize(name, maxLength)
			if clean == "" {
				continue
			}
			all = append(all, NameCandidate{
				StyleID:   id,
				StyleName: def.Name,
				Filename:  clean,
				Language:  def.Language,
			})
		}
	}

	total := e.Styles.TotalCandidates()
	if total > 0 && len(all) > total {
		all = all[:total]
	}
	return all, nil
}

func buildSystemPrompt(def prompts.StyleDefinition, perStyle int) string {
	var b strings.Builder
	b.WriteString(def.PromptTemplate)
	if len(def.Examples) > 0 {
		b.WriteString("\n\nExamples:\n")
		for i, ex := range def.Examples {
			fmt.Fprintf(&b, "%d. %s\n", i+1, ex)
		}
	}
	fmt.Fprintf(&b, "\nReturn exactly %d candidate filename(s) (no extension) as JSON: {\"names\": [\"...\"]}. Follow the style strictly. Output JSON only, nothing else.", perStyle)
	return b.String()
}

func buildUserPrompt(report *analysis.AnalysisReport) string {
	var b strings.Builder
	b.WriteString("Analysis results:\n")
	for _, id := range report.Order {
		labels, _ := report.Get(id)
		fmt.Fprintf(&b, "- %s: %s\n", id, strings.Join(labels, ", "))
	}
	return b.String()
}

func parseNames(resp string) []string {
	val, ok := jsonloose.Parse(resp)
	if !ok {
		return nil
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil
	}
	rawNames, ok := m["names"].([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, n := range rawNames {
		if s, ok := n.(string); ok {
			names = append(names, s)
		}
	}
	return names
}

// Sanitize replaces illegal filename characters with "_", collapses
// whitespace runs to a single space, trims, and truncates to maxLength,
// matching original_source/naming/styles.py's sanitize_filename exactly.
func Sanitize(name string, maxLength int) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(illegalChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	collapsed = strings.TrimSpace(collapsed)
	if maxLength > 0 {
		runes := []rune(collapsed)
		if len(runes) > maxLength {
			collapsed = strings.TrimSpace(string(runes[:maxLength]))
		}
	}
	return collapsed
}
