package pool

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExpander satisfies Expander without touching the real grammar
// engine, so pool tests exercise scheduling and stats in isolation.
type fakeExpander struct {
	failRule string
}

func (f *fakeExpander) GenerateBatch(g *grammar.Grammar, rule string, count int, seed *int64) ([]string, error) {
	if rule == f.failRule {
		return nil, fmt.Errorf("fake failure for rule %q", rule)
	}
	out := make([]string, count)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", rule, i)
	}
	return out, nil
}

func testGrammars() map[string]*grammar.Grammar {
	g := grammar.New("g")
	g.AddRule("query", grammar.Lit("x"))
	return map[string]*grammar.Grammar{"g": g}
}

func TestSubmitBatchResolvesFuture(t *testing.T) {
	p := New(Config{Threads: 2, QueueSize: 10}, &fakeExpander{}, testGrammars(), entropy.NewManager(1, true))
	defer p.Shutdown(true, 2*time.Second)

	f, err := p.SubmitBatch("g", 5, map[string]string{"rule": "query"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Len(t, b.Texts, 5)
	assert.NoError(t, b.Err)
}

func TestSubmitBatchUnknownGrammarErrors(t *testing.T) {
	p := New(Config{Threads: 1, QueueSize: 10}, &fakeExpander{}, testGrammars(), entropy.NewManager(1, true))
	defer p.Shutdown(true, 2*time.Second)

	f, err := p.SubmitBatch("missing", 1, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Error(t, b.Err)
}

func TestSubmitBatchesDrainsUnderOutstandingLimit(t *testing.T) {
	cfg := Config{Threads: 2, QueueSize: 1000, MaxOutstandingPerProd: 3}
	p := New(cfg, &fakeExpander{}, testGrammars(), entropy.NewManager(1, true))
	defer p.Shutdown(true, 2*time.Second)

	futures, err := p.SubmitBatches("g", 100, 10, map[string]string{"rule": "query"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(futures), cfg.MaxOutstandingPerProd+1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, f := range futures {
		_, err := f.Wait(ctx)
		require.NoError(t, err)
	}
}

func TestStatsAccumulateAcrossBatches(t *testing.T) {
	p := New(Config{Threads: 2, QueueSize: 100}, &fakeExpander{}, testGrammars(), entropy.NewManager(1, true))
	defer p.Shutdown(true, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		f, err := p.SubmitBatch("g", 10, map[string]string{"rule": "query"})
		require.NoError(t, err)
		_, err = f.Wait(ctx)
		require.NoError(t, err)
	}

	stats := p.Stats()
	assert.Equal(t, int64(50), stats.TotalGenerated)
	assert.Equal(t, int64(5), stats.TotalBatches)
	assert.Equal(t, int64(0), stats.TotalErrors)
	assert.Len(t, stats.Workers, 2)
}

func TestStatsCountErrors(t *testing.T) {
	p := New(Config{Threads: 1, QueueSize: 10}, &fakeExpander{failRule: "query"}, testGrammars(), entropy.NewManager(1, true))
	defer p.Shutdown(true, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	f, err := p.SubmitBatch("g", 1, map[string]string{"rule": "query"})
	require.NoError(t, err)
	b, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Error(t, b.Err)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.TotalErrors)
}

func TestShutdownRejectsFurtherSubmission(t *testing.T) {
	p := New(Config{Threads: 1, QueueSize: 10}, &fakeExpander{}, testGrammars(), entropy.NewManager(1, true))
	p.Shutdown(true, 2*time.Second)

	_, err := p.SubmitBatch("g", 1, nil)
	assert.Error(t, err)
}

func TestFutureReadyReflectsCompletion(t *testing.T) {
	p := New(Config{Threads: 1, QueueSize: 10}, &fakeExpander{}, testGrammars(), entropy.NewManager(1, true))
	defer p.Shutdown(true, 2*time.Second)

	f, err := p.SubmitBatch("g", 1, map[string]string{"rule": "query"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = f.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, f.Ready())
}
