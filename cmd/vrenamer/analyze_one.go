package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"vrenamer/internal/analysis"
	"vrenamer/internal/auditstore"
	"vrenamer/internal/config"
	"vrenamer/internal/llmgateway"
	"vrenamer/internal/naming"
	"vrenamer/internal/prompts"
	"vrenamer/internal/rename"
	"vrenamer/internal/sampler"
	"vrenamer/internal/transcript"
)

// analyzeOne runs C1->C5->C6 against a single video file, then either
// prompts interactively (original_source/cli/interactive.py's menu) or
// applies the first candidate directly in non-interactive mode.
func analyzeOne(ctx context.Context, cfg *config.AppConfig, path string, styleIDs []string, candidateOverride int, dryRun, nonInteractive bool) error {
	gw, err := llmgateway.New(cfg.LLMBackend.Transport, cfg.LLMBackend.BaseURL, cfg.LLMBackend.APIKey, cfg.LLMBackend.Model, cfg.LLMBackend.TimeoutSec)
	if err != nil {
		return fmt.Errorf("build LLM gateway: %w", err)
	}

	promptStore, err := prompts.Load(cfg.Analysis.PromptsDir)
	if err != nil {
		return fmt.Errorf("load analysis prompts: %w", err)
	}
	subtasks, err := analysis.LoadSubtasks(cfg.Analysis.TasksConfigPath)
	if err != nil {
		return fmt.Errorf("load subtasks config: %w", err)
	}
	styleStore, err := prompts.LoadStyles(cfg.Naming.StyleConfigPath)
	if err != nil {
		return fmt.Errorf("load naming styles: %w", err)
	}

	engine := analysis.NewEngine(gw, promptStore, cfg.Concurrency.TaskConcurrency, cfg.Concurrency.BatchConcurrency, cfg.Analysis.BatchSize, cfg.Analysis.BatchSizeMax, 3)
	namer := naming.NewEngine(gw, styleStore)
	sp := sampler.New(cfg.Analysis.TargetFrames, cfg.Analysis.TargetMax)
	tx := transcript.New(cfg.Transcript.Enabled, cfg.Transcript.Backend)
	executor := rename.NewExecutor(cfg.Audit.LogPath)

	var mirror *auditstore.Store
	if cfg.Audit.PostgresURL != "" {
		mirror, err = auditstore.Open(ctx, cfg.Audit.PostgresURL)
		if err != nil {
			log.Printf("[vrenamer] WARNING: audit postgres mirror unavailable, continuing without it: %v", err)
			mirror = nil
		} else {
			defer mirror.Close()
		}
	}

	frameDir, err := os.MkdirTemp("", "vrenamer-frames-*")
	if err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	defer os.RemoveAll(frameDir)

	frameSet, err := sp.Sample(ctx, path, frameDir)
	if err != nil {
		return fmt.Errorf("sample frames: %w", err)
	}

	transcriptText := ""
	if tx.IsAvailable() {
		transcriptText, _ = tx.Extract(ctx, path)
	}

	report, err := engine.Analyze(ctx, subtasks, frameSet.Frames, transcriptText, nil)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if len(styleIDs) == 0 {
		styleIDs = cfg.Naming.Styles
	}
	perStyle := candidateOverride
	if perStyle <= 0 {
		perStyle = cfg.Naming.CandidatesPerStyle
	}
	candidates, err := namer.Candidates(ctx, report, styleIDs, perStyle)
	if err != nil {
		return fmt.Errorf("generate names: %w", err)
	}
	if len(candidates) > cfg.Naming.TotalCandidates {
		candidates = candidates[:cfg.Naming.TotalCandidates]
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no naming candidates produced")
	}

	var picked naming.NameCandidate
	if nonInteractive {
		picked = candidates[0]
	} else {
		var ok bool
		picked, ok = promptForCandidate(candidates)
		if !ok {
			fmt.Println("skipped")
			return nil
		}
	}

	target, err := executor.Apply(path, picked.Filename, report.Labels, dryRun)
	if err != nil {
		return fmt.Errorf("apply rename: %w", err)
	}
	fmt.Printf("-> %s\n", target)

	if mirror != nil {
		if err := mirror.RecordRename(ctx, path, target, report.Labels, dryRun, time.Now()); err != nil {
			log.Printf("[vrenamer] WARNING: audit mirror insert failed: %v", err)
		}
	}
	return nil
}

// promptForCandidate prints the candidate table and reads a choice from
// stdin, matching cli/interactive.py's table-then-Prompt.ask menu.
func promptForCandidate(candidates []naming.NameCandidate) (naming.NameCandidate, bool) {
	fmt.Println("Candidates:")
	for i, c := range candidates {
		fmt.Printf("  %d) [%s] %s\n", i+1, c.StyleName, c.Filename)
	}
	fmt.Print("Pick a number, 's' to skip: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return naming.NameCandidate{}, false
	}
	choice := strings.TrimSpace(line)
	if choice == "" || strings.EqualFold(choice, "s") {
		return naming.NameCandidate{}, false
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(candidates) {
		return naming.NameCandidate{}, false
	}
	return candidates[idx-1], true
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
