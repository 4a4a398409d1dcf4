// Package scoring combines the three dimension verdicts into one composite
// score.
package scoring

import (
	"encoding/json"
	"math"
	"math/big"
	"regexp"
	"strconv"

	"golang.org/x/text/width"

	"github.com/abhisek/lessondiag/internal/diagnosis"
	"github.com/abhisek/lessondiag/internal/extract"
)

// Dimension weights, in tenths.
const (
	CompletenessWeight   = 3
	TimeAllocationWeight = 3
	LiteracyWeight       = 4
)

// SubScores are the three dimension scores as read from a diagnosis.
type SubScores struct {
	Completeness   float64 `json:"completeness"`
	TimeAllocation float64 `json:"time_allocation"`
	Literacy       float64 `json:"literacy"`
}

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// Breakdown reads the score of each dimension. Missing or unreadable scores
// count as 0.
func Breakdown(r *diagnosis.Result) SubScores {
	if r == nil {
		return SubScores{}
	}
	return SubScores{
		Completeness:   Value(r.Completeness, "score"),
		TimeAllocation: Value(r.TimeAllocation, "score"),
		Literacy:       Value(r.Literacy, "average_score"),
	}
}

// Score returns the weighted composite of r rounded to two decimals, ties
// away from zero. Scores outside 0-100 are used as given.
func Score(r *diagnosis.Result) float64 {
	s := Breakdown(r)

	sum := new(big.Rat)
	sum.Add(sum, weighted(s.Completeness, CompletenessWeight))
	sum.Add(sum, weighted(s.TimeAllocation, TimeAllocationWeight))
	sum.Add(sum, weighted(s.Literacy, LiteracyWeight))

	return roundHalfAway(sum, 2)
}

// Value reads a numeric score at the given key path. Numbers are taken as
// is, strings yield their first decimal number ("85分" and "８５分" are 85),
// with full-width digits folded to ASCII first. Everything
// else, including booleans and non-finite numbers, is 0.
func Value(res extract.Result, keys ...string) float64 {
	v, ok := res.Lookup(keys...)
	if !ok {
		return 0
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		m := numberPattern.FindString(width.Fold.String(n))
		if m == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// weighted returns v×tenths/10 computed on v's shortest decimal form.
func weighted(v float64, tenths int64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return new(big.Rat)
	}
	return r.Mul(r, big.NewRat(tenths, 10))
}

func roundHalfAway(r *big.Rat, places int) float64 {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(scale))

	num := new(big.Int).Abs(scaled.Num())
	den := scaled.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Mul(rem, big.NewInt(2)).Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if scaled.Sign() < 0 {
		q.Neg(q)
	}

	f, _ := new(big.Rat).SetFrac(q, scale).Float64()
	return f
}
