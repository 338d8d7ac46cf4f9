package datagen

import (
	"fmt"
	"strconv"
	"time"

	"github.com/k0kubun/rqg/internal/entropy"
)

// CorrelationKind selects how a correlated tuple of values is
// produced, per spec.md §4.5.
type CorrelationKind int

const (
	// Sequential: fields are emitted in increasing order (e.g.
	// created_at <= updated_at).
	Sequential CorrelationKind = iota
	// Dependent: the first field is derived from the other two as
	// their product, Fields[0] = Fields[1] * Fields[2] (e.g. total =
	// qty * unit_price).
	Dependent
	// Proportional: a field is a scaled copy of another within a
	// configured ratio band.
	Proportional
)

// CorrelationSpec names the fields participating in one correlated
// emission and any parameters the kind needs.
type CorrelationSpec struct {
	Kind   CorrelationKind
	Fields []string // field names, order matters for Sequential/Dependent
	Ratio  [2]float64
}

// GenerateCorrelated emits values for every named field atomically so
// the spec's invariant holds, given each field's Column definition.
func (g *Generator) GenerateCorrelated(cols map[string]Column, spec CorrelationSpec, h *entropy.Handle, ctx *RowContext) (map[string]any, error) {
	switch spec.Kind {
	case Sequential:
		return g.generateSequential(cols, spec, h, ctx)
	case Dependent:
		return g.generateDependent(cols, spec, h, ctx)
	case Proportional:
		return g.generateProportional(cols, spec, h)
	default:
		return nil, fmt.Errorf("datagen: unknown correlation kind %d", spec.Kind)
	}
}

func (g *Generator) generateSequential(cols map[string]Column, spec CorrelationSpec, h *entropy.Handle, ctx *RowContext) (map[string]any, error) {
	out := map[string]any{}
	base := referenceNow().AddDate(0, 0, -int(h.Randint(0, 365)))
	var offset time.Duration
	for i, name := range spec.Fields {
		col, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("datagen: correlation field %q missing column definition", name)
		}
		step := time.Duration(h.Randint(0, 3600)) * time.Second
		if i > 0 {
			offset += step
		}
		t := base.Add(offset)
		if col.Type == TypeDate {
			out[name] = t.Format("2006-01-02")
		} else {
			out[name] = t.Format(time.RFC3339)
		}
	}
	return out, nil
}

func (g *Generator) generateDependent(cols map[string]Column, spec CorrelationSpec, h *entropy.Handle, ctx *RowContext) (map[string]any, error) {
	if len(spec.Fields) != 3 {
		return nil, fmt.Errorf("datagen: dependent correlation needs exactly 3 fields (result, a, b), got %d", len(spec.Fields))
	}
	resultName, aName, bName := spec.Fields[0], spec.Fields[1], spec.Fields[2]
	aCol, ok := cols[aName]
	if !ok {
		return nil, fmt.Errorf("datagen: correlation field %q missing column definition", aName)
	}
	bCol, ok := cols[bName]
	if !ok {
		return nil, fmt.Errorf("datagen: correlation field %q missing column definition", bName)
	}

	aVal, err := g.Generate(aCol, h, ctx)
	if err != nil {
		return nil, err
	}
	bVal, err := g.Generate(bCol, h, ctx)
	if err != nil {
		return nil, err
	}

	aF, bF := toFloat(aVal), toFloat(bVal)
	result := aF * bF

	return map[string]any{
		aName:      aVal,
		bName:      bVal,
		resultName: fmt.Sprintf("%.2f", result),
	}, nil
}

func (g *Generator) generateProportional(cols map[string]Column, spec CorrelationSpec, h *entropy.Handle) (map[string]any, error) {
	if len(spec.Fields) != 2 {
		return nil, fmt.Errorf("datagen: proportional correlation needs exactly 2 fields, got %d", len(spec.Fields))
	}
	baseName, derivedName := spec.Fields[0], spec.Fields[1]
	baseCol, ok := cols[baseName]
	if !ok {
		return nil, fmt.Errorf("datagen: correlation field %q missing column definition", baseName)
	}
	baseVal, err := g.Generate(baseCol, h, nil)
	if err != nil {
		return nil, err
	}
	lo, hi := spec.Ratio[0], spec.Ratio[1]
	if lo == 0 && hi == 0 {
		lo, hi = 0.8, 1.2
	}
	ratio := lo + h.Float64()*(hi-lo)
	derived := toFloat(baseVal) * ratio
	return map[string]any{
		baseName:    baseVal,
		derivedName: fmt.Sprintf("%.2f", derived),
	}, nil
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	default:
		return 0
	}
}
