package runner

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// ddlPrefixes lists the leading keywords that mark a statement as
// DDL, after stripping leading whitespace, per spec.md §4.7.
var ddlPrefixes = []string{"CREATE", "ALTER", "DROP", "TRUNCATE"}

// yugabyteExtraPrefixes extends DDL classification for Yugabyte-
// flavored runners.
var yugabyteExtraPrefixes = []string{"REINDEX", "REFRESH MATERIALIZED VIEW"}

// ycqlExtraPrefixes extends DDL classification for YCQL runners.
var ycqlExtraPrefixes = []string{"USE"}

// IsDDL classifies sql as DDL for the given flavor.
func IsDDL(sql string, flavor Flavor) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))
	for _, p := range ddlPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	if flavor == FlavorYSQL {
		for _, p := range yugabyteExtraPrefixes {
			if strings.HasPrefix(trimmed, p) {
				return true
			}
		}
	}
	if flavor == FlavorYCQL {
		for _, p := range ycqlExtraPrefixes {
			if strings.HasPrefix(trimmed, p) {
				return true
			}
		}
	}
	return false
}

// ClassifyError maps a vendor error to an outcome symbol and a short
// vendor-agnostic error-class string, per spec.md §4.7 and §7
// "VendorError".
func ClassifyError(err error) (Symbol, string) {
	if err == nil {
		return Success, ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout, "statement_timeout"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPQError(pqErr)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "canceling statement"):
		return Timeout, "statement_timeout"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "broken pipe"), strings.Contains(msg, "eof"):
		return Connection, "connection_lost"
	case strings.Contains(msg, "syntax"):
		return Syntax, "syntax_error"
	default:
		return Other, "unclassified"
	}
}

// classifyPQError maps lib/pq's SQLSTATE classes to outcome symbols.
// Class prefixes follow the Postgres error-codes appendix: 08
// (connection), 42 (syntax/access), 57 (operator intervention,
// includes query_canceled).
func classifyPQError(e *pq.Error) (Symbol, string) {
	code := string(e.Code)
	class := code
	if len(code) >= 2 {
		class = code[:2]
	}

	switch {
	case code == "57014": // query_canceled
		return Timeout, "query_canceled"
	case class == "08": // connection_exception
		return Connection, "connection_exception"
	case class == "42": // syntax_error_or_access_rule_violation
		return Syntax, string(e.Code)
	case class == "40": // transaction_rollback (serialization failures)
		return Other, "serialization_failure"
	default:
		return Other, string(e.Code)
	}
}

// IsSerializationFailure reports whether err should trigger a DDL
// retry, per spec.md §4.7's "SerializationFailure/OperationalError"
// retry rule.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return strings.HasPrefix(code, "40") || strings.HasPrefix(code, "08")
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "serialization") || strings.Contains(msg, "connection")
}
