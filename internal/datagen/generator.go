package datagen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/k0kubun/rqg/internal/entropy"
)

// RowContext carries per-row state threaded through a batch of
// Generate calls, e.g. the row counter used to bias `_id` columns
// toward sequential-looking values (spec.md §4.5).
type RowContext struct {
	RowIndex int64
}

// Generator produces values for a Column, given an entropy handle and
// row context. One Generator is reused across many calls; its
// vocabulary is built once at construction rather than per call.
type Generator struct {
	vocabulary []string
}

// NewGenerator builds a Generator whose synthetic-word vocabulary has
// vocabSize entries, sampled once using h.
func NewGenerator(vocabSize int, h *entropy.Handle) *Generator {
	if vocabSize <= 0 {
		vocabSize = 500
	}
	vocab := make([]string, vocabSize)
	for i := range vocab {
		vocab[i] = syntheticWord(h)
	}
	return &Generator{vocabulary: vocab}
}

func syntheticWord(h *entropy.Handle) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	n := int(h.Randint(3, 9))
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[h.Choice(len(letters))]
	}
	return string(b)
}

// Generate produces one legal value for col.
func (g *Generator) Generate(col Column, h *entropy.Handle, ctx *RowContext) (any, error) {
	if col.Nullable && h.Float64() < col.effectiveNullRate() {
		return nil, nil
	}

	switch col.Type {
	case TypeInteger, TypeBigInt:
		return g.genInteger(col, h, ctx), nil
	case TypeDecimal:
		return g.genDecimal(col, h), nil
	case TypeVarchar, TypeText:
		return g.genText(col, h), nil
	case TypeBoolean:
		return g.genBool(col, h), nil
	case TypeDate:
		return g.genDate(col, h).Format("2006-01-02"), nil
	case TypeTimestamp:
		return g.genDate(col, h).Format(time.RFC3339), nil
	case TypeJSON:
		return genJSON(h, 0), nil
	case TypeUUID:
		return uuid.NewString(), nil
	case TypeInet:
		return genInet(h), nil
	case TypeArray:
		return g.genArray(col, h, ctx), nil
	default:
		return nil, fmt.Errorf("datagen: unsupported column type for %q", col.Name)
	}
}

func (g *Generator) sample(dist Distribution, h *entropy.Handle, lo, hi int64) int64 {
	switch dist {
	case Normal:
		mu := float64(lo+hi) / 2
		sigma := float64(hi-lo) / 6
		if sigma <= 0 {
			sigma = 1
		}
		v := int64(math.Round(h.Gauss(mu, sigma)))
		return clamp(v, lo, hi)
	case Exponential:
		v := lo + int64(h.Exponential(1.0/float64(hi-lo+1)))
		return clamp(v, lo, hi)
	case Zipfian:
		n := int(hi - lo + 1)
		if n < 1 {
			n = 1
		}
		return lo + int64(h.Zipfian(n, 1.2)) - 1
	case Poisson:
		lambda := float64(lo+hi) / 2
		return clamp(lo+int64(h.Poisson(lambda)), lo, hi)
	case Binomial:
		n := int(hi - lo)
		if n < 0 {
			n = 0
		}
		return lo + int64(h.Binomial(n, 0.5))
	default: // Uniform
		return h.Randint(lo, hi)
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (g *Generator) genInteger(col Column, h *entropy.Handle, ctx *RowContext) int64 {
	lo, hi := col.Min, col.Max
	if lo == 0 && hi == 0 {
		hi = 1_000_000
	}
	name := lowerName(col)
	if hasSuffix(name, "_id") && ctx != nil {
		// Sequential-looking IDs derived from the row counter, per
		// spec.md §4.5.
		return ctx.RowIndex + 1
	}
	return g.sample(col.Distribution, h, lo, hi)
}

func (g *Generator) genDecimal(col Column, h *entropy.Handle) string {
	p, s := col.Precision, col.Scale
	if p <= 0 {
		p = 10
	}
	if s < 0 || s >= p {
		s = 2
	}
	intDigits := p - s
	maxInt := int64(math.Pow10(intDigits)) - 1
	if maxInt < 1 {
		maxInt = 1
	}
	name := lowerName(col)
	intPart := h.Randint(0, maxInt)

	var fracPart int64
	if hasSubstr(name, "price", "cost", "amount") && s >= 2 {
		// Price-like columns bias toward N.99.
		pow := int64(math.Pow10(s))
		fracPart = pow - 1
	} else {
		pow := int64(math.Pow10(s))
		if pow < 1 {
			pow = 1
		}
		fracPart = h.Randint(0, pow-1)
	}

	fracStr := strconv.FormatInt(fracPart, 10)
	for len(fracStr) < s {
		fracStr = "0" + fracStr
	}
	if s == 0 {
		return strconv.FormatInt(intPart, 10)
	}
	return fmt.Sprintf("%d.%s", intPart, fracStr)
}

func (g *Generator) genText(col Column, h *entropy.Handle) string {
	name := lowerName(col)
	switch {
	case hasSubstr(name, "email"):
		return fmt.Sprintf("%s.%d@%s", g.word(h), h.Randint(1, 9999), emailDomain(h))
	case hasSubstr(name, "phone"):
		return genPhone(h)
	case strings.Contains(name, "name"):
		return genPersonName(h)
	case hasSubstr(name, "address"):
		return fmt.Sprintf("%d %s %s", h.Randint(1, 9999), titleCase(g.word(h)), streetSuffix(h))
	case hasSubstr(name, "city"):
		return genCity(h)
	case hasSubstr(name, "state"):
		return genState(h)
	case hasSubstr(name, "country"):
		return genCountry(h)
	case hasSubstr(name, "code"):
		return genCode(h)
	default:
		k := int(h.Randint(1, 5))
		words := make([]string, k)
		for i := range words {
			words[i] = g.word(h)
		}
		out := strings.Join(words, " ")
		if col.MaxLen > 0 && len(out) > col.MaxLen {
			out = out[:col.MaxLen]
		}
		return out
	}
}

func (g *Generator) word(h *entropy.Handle) string {
	if len(g.vocabulary) == 0 {
		return syntheticWord(h)
	}
	return g.vocabulary[h.Choice(len(g.vocabulary))]
}

func (g *Generator) genBool(col Column, h *entropy.Handle) bool {
	name := lowerName(col)
	switch {
	case hasSubstr(name, "active", "enabled"):
		return h.Float64() < 0.8
	case hasSubstr(name, "deleted", "disabled"):
		return h.Float64() < 0.2
	default:
		return h.Float64() < 0.5
	}
}

func (g *Generator) genDate(col Column, h *entropy.Handle) time.Time {
	name := lowerName(col)
	now := referenceNow()
	switch {
	case hasSubstr(name, "birth"):
		years := h.Randint(20, 80)
		return now.AddDate(-int(years), 0, 0)
	case hasSubstr(name, "created", "updated"):
		days := h.Randint(0, 365)
		return now.AddDate(0, 0, -int(days))
	default:
		lo, hi := col.Min, col.Max
		if lo == 0 && hi == 0 {
			lo, hi = now.AddDate(-5, 0, 0).Unix(), now.Unix()
		}
		sec := h.Randint(lo, hi)
		return time.Unix(sec, 0).UTC()
	}
}

// referenceNow is a fixed point in time rather than time.Now(), so
// date-biased generation stays a pure function of the entropy handle
// for a given seed (needed for deterministic generate_batch, spec.md
// §4.1 / §8 property 1, when dates participate in a grammar).
func referenceNow() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (g *Generator) genArray(col Column, h *entropy.Handle, ctx *RowContext) string {
	n := int(h.Randint(0, 5))
	elems := make([]string, n)
	elemCol := Column{Name: col.Name, Type: col.ElementType, Min: col.Min, Max: col.Max}
	for i := range elems {
		v, _ := g.Generate(elemCol, h, ctx)
		elems[i] = fmt.Sprintf("%v", v)
	}
	return "{" + strings.Join(elems, ",") + "}"
}

func genJSON(h *entropy.Handle, depth int) map[string]any {
	out := map[string]any{}
	n := int(h.Randint(1, 4))
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%d", i)
		if depth < 3 && h.Float64() < 0.3 {
			out[key] = genJSON(h, depth+1)
		} else if h.Float64() < 0.5 {
			arr := make([]any, h.Randint(0, 3))
			for j := range arr {
				arr[j] = h.Randint(0, 100)
			}
			out[key] = arr
		} else {
			out[key] = h.Randint(0, 1000)
		}
	}
	return out
}

func genInet(h *entropy.Handle) string {
	if h.Float64() < 0.8 {
		return fmt.Sprintf("%d.%d.%d.%d", h.Randint(1, 255), h.Randint(0, 255), h.Randint(0, 255), h.Randint(1, 255))
	}
	parts := make([]string, 8)
	for i := range parts {
		parts[i] = fmt.Sprintf("%x", h.Randint(0, 0xffff))
	}
	return strings.Join(parts, ":")
}
