// Package analysis implements the two-tier concurrent scheduler: a
// bounded fan-out of N independent subtasks (tier 1), each of which itself
// fans out into M image-batch LLM requests (tier 2), with per-tier
// concurrency caps, per-batch failure isolation, frequency-based label
// aggregation, and deterministic, configuration-ordered assembly of the
// final report.
//
// This is grounded on original_source/services/analysis.py's
// task_semaphore/batch_semaphore design, translated from asyncio.Semaphore
// to buffered-channel counting semaphores plus sync.WaitGroup joins, the
// idiomatic Go substitute for cooperative-scheduling concurrency caps.
package analysis

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"sync"

	"vrenamer/internal/jsonloose"
	"vrenamer/internal/llmgateway"
	"vrenamer/internal/prompts"
)

// ProgressFunc receives advisory, non-blocking progress events from batch
// goroutines. It may be invoked concurrently from any worker and must not
// block.
type ProgressFunc func(subtaskID, status string, payload map[string]any)

// Engine runs Analyze calls against a fixed gateway and prompt store.
type Engine struct {
	Gateway llmgateway.Gateway
	Prompts *prompts.Store

	TaskConcurrency  int
	BatchConcurrency int
	BatchSize        int
	BatchSizeMax     int
	TopK             int
}

// NewEngine constructs an Engine, clamping defaults the way
// config.AppConfig.Validate already enforces upstream (this is a second,
// defensive layer — Engine has no dependency on the config package).
func NewEngine(gw llmgateway.Gateway, store *prompts.Store, taskConcurrency, batchConcurrency, batchSize, batchSizeMax, topK int) *Engine {
	if taskConcurrency <= 0 {
		taskConcurrency = 4
	}
	if batchConcurrency <= 0 {
		batchConcurrency = 16
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if batchSizeMax <= 0 || batchSizeMax < batchSize {
		batchSizeMax = 50
	}
	if topK <= 0 {
		topK = 3
	}
	return &Engine{
		Gateway:          gw,
		Prompts:          store,
		TaskConcurrency:  taskConcurrency,
		BatchConcurrency: batchConcurrency,
		BatchSize:        batchSize,
		BatchSizeMax:     batchSizeMax,
		TopK:             topK,
	}
}

// Analyze fans out every enabled subtask (tier 1), each fanning out frame
// batches (tier 2), and assembles the final report in configuration order.
// It does not fail as a whole unless ctx is cancelled; individual subtask
// failures degrade to ["unknown"].
func (e *Engine) Analyze(ctx context.Context, subtasks []SubtaskSpec, frames []string, transcript string, progress ProgressFunc) (*AnalysisReport, error) {
	enabled := Enabled(subtasks)

	sTask := make(chan struct{}, e.TaskConcurrency)
	sBatch := make(chan struct{}, e.BatchConcurrency)

	results := make([]SubtaskResult, len(enabled))
	var wg sync.WaitGroup

	for i, spec := range enabled {
		wg.Add(1)
		go func(i int, spec SubtaskSpec) {
			defer wg.Done()

			select {
			case sTask <- struct{}{}:
			case <-ctx.Done():
				results[i] = SubtaskResult{SubtaskID: spec.ID, Labels: []string{unknownLabel}}
				return
			}
			defer func() { <-sTask }()

			results[i] = e.runSubtask(ctx, spec, frames, sBatch, progress)
		}(i, spec)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &AnalysisReport{Labels: make(map[string][]string, len(results)+1)}
	for _, r := range results {
		report.Labels[r.SubtaskID] = r.Labels
		report.Order = append(report.Order, r.SubtaskID)
	}
	if transcript != "" {
		report.Labels["transcript"] = []string{transcript}
		report.Order = append(report.Order, "transcript")
	}
	return report, nil
}

// runSubtask implements tier 2: shuffle, partition, fan out batches under
// the shared batch semaphore, then aggregate.
func (e *Engine) runSubtask(ctx context.Context, spec SubtaskSpec, frames []string, sBatch chan struct{}, progress ProgressFunc) SubtaskResult {
	shuffled := make([]string, len(frames))
	copy(shuffled, frames)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	batchSize := spec.BatchSize
	if batchSize <= 0 {
		batchSize = e.BatchSize
	}
	batches := partition(shuffled, batchSize)

	pf, err := e.Prompts.Get(spec.PromptFile)
	if err != nil {
		log.Printf("[Analysis] WARNING: subtask %s prompt load failed, degrading to unknown: %v", spec.ID, err)
		return SubtaskResult{SubtaskID: spec.ID, Labels: []string{unknownLabel}, BatchesTried: 0, FramesUsed: len(frames)}
	}

	batchResults := make([]BatchResult, len(batches))
	var wg sync.WaitGroup
	for idx, batch := range batches {
		wg.Add(1)
		go func(idx int, batch []string) {
			defer wg.Done()

			select {
			case sBatch <- struct{}{}:
			case <-ctx.Done():
				batchResults[idx] = BatchResult{Err: ctx.Err()}
				return
			}
			defer func() { <-sBatch }()

			batchResults[idx] = e.runBatch(ctx, spec.ID, pf, idx, len(batches), batch, progress)
		}(idx, batch)
	}
	wg.Wait()

	var confSum float64
	var confN int
	for _, r := range batchResults {
		if r.Err == nil {
			confSum += r.Confidence
			confN++
		}
	}
	if confN > 0 {
		log.Printf("[Analysis] subtask %s mean confidence %.2f over %d batch(es)", spec.ID, confSum/float64(confN), confN)
	}

	labels := aggregate(batchResults, e.TopK)
	return SubtaskResult{SubtaskID: spec.ID, Labels: labels, BatchesTried: len(batches), FramesUsed: len(frames)}
}

// runBatch implements the per-batch pipeline: render, classify, parse,
// shape-check. It never returns an error the caller must propagate — all
// failures degrade into a BatchResult with Err set and empty labels.
func (e *Engine) runBatch(ctx context.Context, subtaskID string, pf prompts.PromptFile, idx, total int, batch []string, progress ProgressFunc) BatchResult {
	systemPrompt, userPrompt, err := prompts.Render(pf, nil)
	if err != nil {
		fireProgress(progress, subtaskID, "error", map[string]any{"batch_idx": idx, "error": err.Error()})
		return BatchResult{Err: err}
	}

	resp, err := e.Gateway.Classify(ctx, systemPrompt+"\n\n"+userPrompt, batch, llmgateway.Opts{
		JSON:        true,
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		fireProgress(progress, subtaskID, "error", map[string]any{"batch_idx": idx, "error": err.Error()})
		return BatchResult{Err: err}
	}

	val, ok := jsonloose.Parse(resp)
	if !ok {
		err := fmt.Errorf("unparseable response")
		fireProgress(progress, subtaskID, "error", map[string]any{"batch_idx": idx, "error": err.Error()})
		return BatchResult{Err: err}
	}

	labels, confidence := shapeCheck(val)
	fireProgress(progress, subtaskID, "batch_done", map[string]any{
		"batch_idx":     idx,
		"total_batches": total,
		"labels":        labels,
	})
	return BatchResult{Labels: labels, Confidence: confidence}
}

// shapeCheck accepts only {labels: [string], confidence: number}; any
// other shape degrades to empty, per the failure taxonomy.
func shapeCheck(v any) ([]string, float64) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, 0
	}
	var labels []string
	if rawLabels, ok := m["labels"].([]any); ok {
		for _, l := range rawLabels {
			if s, ok := l.(string); ok {
				labels = append(labels, s)
			}
		}
	}
	var confidence float64
	if c, ok := m["confidence"].(float64); ok {
		confidence = c
	}
	return labels, confidence
}

func fireProgress(progress ProgressFunc, subtaskID, status string, payload map[string]any) {
	if progress == nil {
		return
	}
	progress(subtaskID, status, payload)
}

func partition(frames []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for i := 0; i < len(frames); i += size {
		end := i + size
		if end > len(frames) {
			end = len(frames)
		}
		batches = append(batches, frames[i:end])
	}
	return batches
}

// aggregate implements count-then-top-K: concatenate labels across
// batches into a multiset tracked with first-seen order, sort by
// descending count breaking ties by first-seen index, return the first
// topK distinct labels. Empty multiset yields the sentinel ["unknown"].
func aggregate(results []BatchResult, topK int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for _, r := range results {
		for _, label := range r.Labels {
			if _, ok := counts[label]; !ok {
				firstSeen[label] = len(order)
				order = append(order, label)
			}
			counts[label]++
		}
	}

	if len(order) == 0 {
		return []string{unknownLabel}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return firstSeen[a] < firstSeen[b]
	})

	if len(order) > topK {
		order = order[:topK]
	}
	return order
}
