package comparator

import (
	"encoding/json"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v2"
)

// volatileFunctions names the non-deterministic builtins spec.md
// §4.10 calls out by family (RANDOM, NOW, CURRENT_*, UUID), expanded
// to their concrete Postgres function names for the AST walk.
var volatileFunctions = map[string]bool{
	"random":               true,
	"now":                  true,
	"current_timestamp":    true,
	"current_date":         true,
	"current_time":         true,
	"clock_timestamp":      true,
	"statement_timestamp":  true,
	"transaction_timestamp": true,
	"gen_random_uuid":      true,
	"uuid_generate_v4":     true,
	"localtime":            true,
	"localtimestamp":       true,
	"current_user":         true,
}

var plainTextRe = regexp.MustCompile(`(?i)\b(RANDOM|NOW|CURRENT_[A-Z_]+|UUID)\s*\(?`)

// IsNonDeterministic reports whether sql should be skipped for data
// comparison, per spec.md §4.10 rule 4: it contains RANDOM, NOW,
// CURRENT_*, or UUID, or (detected by the caller from row counts) is
// an unordered SELECT returning more than one row.
//
// Detection tries pg_query_go's AST first (the teacher's own SQL-
// parsing dependency, database/postgres/parser.go) to find actual
// function calls by name; parse failures fall back to a plain-text
// keyword scan, since a grammar-generated statement that doesn't
// parse is still worth a conservative skip rather than a crash.
func IsNonDeterministic(sql string) bool {
	if names, err := functionNames(sql); err == nil {
		for n := range names {
			if volatileFunctions[strings.ToLower(n)] {
				return true
			}
		}
		return false
	}
	return plainTextRe.MatchString(sql)
}

// functionNames parses sql and collects every FuncCall node's
// function name by walking the generic JSON form of the AST —
// resilient to the exact protobuf struct shape, since FuncCall
// nodes always carry a "funcname" array of String nodes regardless of
// surrounding statement type.
func functionNames(sql string) (map[string]bool, error) {
	js, err := pg_query.ParseToJSON(sql)
	if err != nil {
		return nil, err
	}
	var tree interface{}
	if err := json.Unmarshal([]byte(js), &tree); err != nil {
		return nil, err
	}
	names := make(map[string]bool)
	walkFuncCalls(tree, names)
	return names, nil
}

func walkFuncCalls(node interface{}, names map[string]bool) {
	switch v := node.(type) {
	case map[string]interface{}:
		if fc, ok := v["FuncCall"]; ok {
			if fcMap, ok := fc.(map[string]interface{}); ok {
				collectFuncName(fcMap, names)
			}
		}
		// Bare SQL-standard niladic functions (CURRENT_TIMESTAMP,
		// CURRENT_DATE, CURRENT_TIME, LOCALTIME, LOCALTIMESTAMP,
		// CURRENT_USER, ...) parse to SQLValueFunction, not FuncCall,
		// since they take no parentheses.
		if svf, ok := v["SQLValueFunction"]; ok {
			if svfMap, ok := svf.(map[string]interface{}); ok {
				collectSQLValueFunctionName(svfMap, names)
			}
		}
		for _, child := range v {
			walkFuncCalls(child, names)
		}
	case []interface{}:
		for _, child := range v {
			walkFuncCalls(child, names)
		}
	}
}

// collectSQLValueFunctionName maps an SQLValueFunction node's "op"
// enum (e.g. "SVFOP_CURRENT_TIMESTAMP") to the lowercase function name
// volatileFunctions keys on (e.g. "current_timestamp").
func collectSQLValueFunctionName(svfMap map[string]interface{}, names map[string]bool) {
	op, ok := svfMap["op"].(string)
	if !ok {
		return
	}
	name := strings.ToLower(strings.TrimPrefix(op, "SVFOP_"))
	names[name] = true
}

func collectFuncName(fcMap map[string]interface{}, names map[string]bool) {
	raw, ok := fcMap["funcname"]
	if !ok {
		return
	}
	parts, ok := raw.([]interface{})
	if !ok {
		return
	}
	for _, p := range parts {
		pm, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		strNode, ok := pm["String"].(map[string]interface{})
		if !ok {
			continue
		}
		if sval, ok := strNode["str"].(string); ok {
			names[sval] = true
		}
	}
}
