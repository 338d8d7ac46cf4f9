package runner

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsDDLBasicPrefixes(t *testing.T) {
	cases := []string{"CREATE TABLE t (id int)", "  alter table t add column x int", "DROP TABLE t", "truncate t"}
	for _, c := range cases {
		assert.True(t, IsDDL(c, FlavorPostgreSQL), c)
	}
	assert.False(t, IsDDL("SELECT 1", FlavorPostgreSQL))
	assert.False(t, IsDDL("INSERT INTO t VALUES (1)", FlavorPostgreSQL))
}

func TestIsDDLYugabyteExtensions(t *testing.T) {
	assert.True(t, IsDDL("REINDEX TABLE t", FlavorYSQL))
	assert.True(t, IsDDL("REFRESH MATERIALIZED VIEW v", FlavorYSQL))
	assert.False(t, IsDDL("REINDEX TABLE t", FlavorPostgreSQL))
}

func TestIsDDLYCQLUse(t *testing.T) {
	assert.True(t, IsDDL("USE myks", FlavorYCQL))
	assert.False(t, IsDDL("USE myks", FlavorPostgreSQL))
}

func TestClassifyPQErrorConnection(t *testing.T) {
	err := &pq.Error{Code: "08006"}
	sym, _ := ClassifyError(err)
	assert.Equal(t, Connection, sym)
}

func TestClassifyPQErrorSyntax(t *testing.T) {
	err := &pq.Error{Code: "42601"}
	sym, class := ClassifyError(err)
	assert.Equal(t, Syntax, sym)
	assert.Equal(t, "42601", class)
}

func TestClassifyPQErrorQueryCanceled(t *testing.T) {
	err := &pq.Error{Code: "57014"}
	sym, _ := ClassifyError(err)
	assert.Equal(t, Timeout, sym)
}

func TestClassifyGenericErrorFallback(t *testing.T) {
	sym, class := ClassifyError(errors.New("boom"))
	assert.Equal(t, Other, sym)
	assert.Equal(t, "unclassified", class)
}

func TestClassifyNilIsSuccess(t *testing.T) {
	sym, _ := ClassifyError(nil)
	assert.Equal(t, Success, sym)
}

func TestIsSerializationFailureRetryableCodes(t *testing.T) {
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40001"}))
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "08006"}))
	assert.False(t, IsSerializationFailure(&pq.Error{Code: "42601"}))
}
