package analysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"vrenamer/internal/llmgateway"
	"vrenamer/internal/prompts"
)

// mockGateway lets tests script Classify responses without a network call.
type mockGateway struct {
	classifyFn func(callIdx int64) (string, error)
	calls      int64
	prompts    sync.Map // int64 call index -> string prompt received
}

func (m *mockGateway) Classify(ctx context.Context, prompt string, images []string, opts llmgateway.Opts) (string, error) {
	idx := atomic.AddInt64(&m.calls, 1) - 1
	m.prompts.Store(idx, prompt)
	return m.classifyFn(idx)
}

func (m *mockGateway) Generate(ctx context.Context, prompt string, opts llmgateway.Opts) (string, error) {
	return "", nil
}

func newTestEngine(gw llmgateway.Gateway, taskConcurrency, batchConcurrency, batchSize int) *Engine {
	return NewEngine(gw, mustPromptStore(), taskConcurrency, batchConcurrency, batchSize, 50, 3)
}

// mustPromptStore builds a prompt store with "role" and "scene" entries in
// memory, bypassing disk I/O for the test.
func mustPromptStore() *prompts.Store {
	return prompts.NewInMemoryStore(map[string]prompts.PromptFile{
		"role":  {SystemPrompt: "classify role", UserPromptTemplate: "What role archetype is shown?"},
		"scene": {SystemPrompt: "classify scene", UserPromptTemplate: "What scene type is shown?"},
	})
}

func twentyFrames() []string {
	frames := make([]string, 20)
	for i := range frames {
		frames[i] = fmt.Sprintf("frame_%02d.jpg", i)
	}
	return frames
}

func subtasksRoleScene() []SubtaskSpec {
	return []SubtaskSpec{
		{ID: "role", PromptFile: "role", Enabled: true},
		{ID: "scene", PromptFile: "scene", Enabled: true},
	}
}

func TestAnalyzeHappyPathS1(t *testing.T) {
	gw := &mockGateway{classifyFn: func(idx int64) (string, error) {
		if idx%2 == 0 {
			return `{"labels":["A"],"confidence":0.9}`, nil
		}
		return `{"labels":["B"],"confidence":0.9}`, nil
	}}
	engine := newTestEngine(gw, 2, 4, 5)

	report, err := engine.Analyze(context.Background(), subtasksRoleScene(), twentyFrames(), "", nil)
	require.NoError(t, err)

	role, ok := report.Get("role")
	require.True(t, ok)
	require.ElementsMatch(t, []string{"A", "B"}, role)
	require.Equal(t, "A", role[0], "tie at count=2 must break to first-seen label A")

	scene, ok := report.Get("scene")
	require.True(t, ok)
	require.ElementsMatch(t, []string{"A", "B"}, scene)
}

func TestAnalyzePartialBatchFailureS2(t *testing.T) {
	gw := &mockGateway{classifyFn: func(idx int64) (string, error) {
		if idx%3 == 0 {
			return "", fmt.Errorf("upstream 500")
		}
		return `{"labels":["X"]}`, nil
	}}
	engine := newTestEngine(gw, 2, 4, 5)

	var errorEvents int64
	progress := func(subtaskID, status string, payload map[string]any) {
		if status == "error" {
			atomic.AddInt64(&errorEvents, 1)
		}
	}

	report, err := engine.Analyze(context.Background(), subtasksRoleScene(), twentyFrames(), "", progress)
	require.NoError(t, err)

	role, _ := report.Get("role")
	require.Equal(t, []string{"X"}, role)
	scene, _ := report.Get("scene")
	require.Equal(t, []string{"X"}, scene)

	require.GreaterOrEqual(t, atomic.LoadInt64(&errorEvents), int64(2))
}

func TestAnalyzeAllBatchesFailS3(t *testing.T) {
	gw := &mockGateway{classifyFn: func(idx int64) (string, error) {
		return "", fmt.Errorf("always fails")
	}}
	engine := newTestEngine(gw, 2, 4, 5)

	report, err := engine.Analyze(context.Background(), subtasksRoleScene(), twentyFrames(), "", nil)
	require.NoError(t, err)

	role, _ := report.Get("role")
	require.Equal(t, []string{"unknown"}, role)
	scene, _ := report.Get("scene")
	require.Equal(t, []string{"unknown"}, scene)
}

func TestAnalyzeAttachesTranscript(t *testing.T) {
	gw := &mockGateway{classifyFn: func(idx int64) (string, error) {
		return `{"labels":["X"]}`, nil
	}}
	engine := newTestEngine(gw, 2, 4, 5)

	report, err := engine.Analyze(context.Background(), subtasksRoleScene(), twentyFrames(), "hello world", nil)
	require.NoError(t, err)
	transcript, ok := report.Get("transcript")
	require.True(t, ok)
	require.Equal(t, []string{"hello world"}, transcript)
}

func TestRunBatchSendsCombinedSystemAndUserPrompt(t *testing.T) {
	gw := &mockGateway{classifyFn: func(idx int64) (string, error) {
		return `{"labels":["X"]}`, nil
	}}
	engine := newTestEngine(gw, 2, 4, 5)

	_, err := engine.Analyze(context.Background(), subtasksRoleScene(), twentyFrames(), "", nil)
	require.NoError(t, err)

	seenRole, seenScene := false, false
	gw.prompts.Range(func(_, v any) bool {
		p := v.(string)
		switch p {
		case "classify role\n\nWhat role archetype is shown?":
			seenRole = true
		case "classify scene\n\nWhat scene type is shown?":
			seenScene = true
		}
		return true
	})
	require.True(t, seenRole, "system_prompt for role must be combined with its user prompt")
	require.True(t, seenScene, "system_prompt for scene must be combined with its user prompt")
}

func TestAggregateTieBreaksByFirstSeen(t *testing.T) {
	results := []BatchResult{
		{Labels: []string{"B"}},
		{Labels: []string{"A"}},
		{Labels: []string{"B"}},
		{Labels: []string{"A"}},
	}
	labels := aggregate(results, 3)
	require.Equal(t, []string{"B", "A"}, labels, "B was seen first across the concatenation")
}

func TestAggregateEmptyYieldsUnknown(t *testing.T) {
	labels := aggregate(nil, 3)
	require.Equal(t, []string{"unknown"}, labels)
}

func TestAggregateRespectsTopK(t *testing.T) {
	results := []BatchResult{
		{Labels: []string{"A", "B", "C", "D"}},
	}
	labels := aggregate(results, 2)
	require.Len(t, labels, 2)
}

func TestConcurrencyBoundNeverExceedsCaps(t *testing.T) {
	var inFlight, maxInFlight int64
	gw := &mockGateway{classifyFn: func(idx int64) (string, error) {
		n := atomic.AddInt64(&inFlight, 1)
		defer atomic.AddInt64(&inFlight, -1)
		for {
			cur := atomic.LoadInt64(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt64(&maxInFlight, cur, n) {
				break
			}
		}
		return `{"labels":["X"]}`, nil
	}}
	engine := newTestEngine(gw, 2, 4, 2)

	_, err := engine.Analyze(context.Background(), subtasksRoleScene(), twentyFrames(), "", nil)
	require.NoError(t, err)
	require.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(4))
}
