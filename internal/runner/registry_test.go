package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct{ name string }

func (s *stubRunner) Connect(ctx context.Context) error { return nil }
func (s *stubRunner) Close() error                      { return nil }
func (s *stubRunner) ExecuteOne(ctx context.Context, sql string) (Outcome, error) {
	return Outcome{Symbol: Success}, nil
}
func (s *stubRunner) IsDDL(sql string) bool                             { return false }
func (s *stubRunner) SetupSchema(ctx context.Context, ddls []string) error { return nil }
func (s *stubRunner) ExecuteQueries(ctx context.Context, stmts <-chan string, progress func(Stats)) (Stats, error) {
	return Stats{}, nil
}

func TestRegistryAliasResolution(t *testing.T) {
	r := NewRegistry()
	r.Register("postgresql", func(cfg Config) (Runner, error) { return &stubRunner{name: "postgresql"}, nil })
	r.Register("ysql", func(cfg Config) (Runner, error) { return &stubRunner{name: "ysql"}, nil })
	r.Register("ycql", func(cfg Config) (Runner, error) { return &stubRunner{name: "ycql"}, nil })

	for _, alias := range []string{"postgres", "postgresql", "sql"} {
		rn, err := r.Build(alias, Config{})
		require.NoError(t, err)
		assert.Equal(t, "postgresql", rn.(*stubRunner).name)
	}
	rn, err := r.Build("ysql", Config{})
	require.NoError(t, err)
	assert.Equal(t, "ysql", rn.(*stubRunner).name)
}

func TestRegistryUnknownName(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build("nonexistent", Config{})
	assert.Error(t, err)
}
