package scoring

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/lessondiag/internal/diagnosis"
	"github.com/abhisek/lessondiag/internal/extract"
)

func result(completeness, timeAlloc, literacy any) *diagnosis.Result {
	return &diagnosis.Result{
		Completeness:   extract.Result{"score": completeness},
		TimeAllocation: extract.Result{"score": timeAlloc},
		Literacy:       extract.Result{"average_score": literacy},
	}
}

func TestScore_Weighting(t *testing.T) {
	assert.Equal(t, 79.00, Score(result(80.0, 90.0, 70.0)))
	assert.Equal(t, 90.50, Score(result(90.0, 85.0, 95.0)))
	assert.Equal(t, 100.0, Score(result(100.0, 100.0, 100.0)))
}

func TestScore_TieRoundsAwayFromZero(t *testing.T) {
	// 24 + 27 + 28.005 = 79.005 exactly.
	assert.Equal(t, 79.01, Score(result(80.0, 90.0, 70.0125)))
	// 0.3 × 0.01 + 0.3 × 0.005 = 0.0045, below the tie.
	assert.Equal(t, 0.0, Score(result(0.01, 0.005, 0.0)))
	// 0.4 × 0.0125 = 0.005, exactly the tie.
	assert.Equal(t, 0.01, Score(result(0.0, 0.0, 0.0125)))
}

func TestScore_StringScores(t *testing.T) {
	assert.Equal(t, 79.00, Score(result("80分", "大约90", "70")))
	assert.Equal(t, 85.0, Value(extract.Result{"score": "85分"}, "score"))
	assert.Equal(t, 90.0, Value(extract.Result{"score": "大约90"}, "score"))
	assert.Equal(t, 87.5, Value(extract.Result{"score": "87.5 / 100"}, "score"))
	assert.Equal(t, 85.0, Value(extract.Result{"score": "８５分"}, "score"))
	assert.Equal(t, 90.0, Value(extract.Result{"score": "大约９０"}, "score"))
	assert.Equal(t, 87.5, Value(extract.Result{"score": "８７．５分"}, "score"))
	assert.Equal(t, 0.0, Value(extract.Result{"score": "no score"}, "score"))
}

func TestScore_AllErrorResults(t *testing.T) {
	r := &diagnosis.Result{
		Completeness:   extract.CallFailure(assert.AnError),
		TimeAllocation: extract.Result{extract.ErrorKey: extract.LabelNotJSON},
		Literacy:       nil,
	}
	assert.Equal(t, 0.0, Score(r))
	assert.Equal(t, SubScores{}, Breakdown(r))
}

func TestScore_NilResult(t *testing.T) {
	assert.Equal(t, 0.0, Score(nil))
}

func TestScore_NotClamped(t *testing.T) {
	assert.Equal(t, 36.0, Score(result(120.0, 0.0, 0.0)))
	assert.Equal(t, -3.0, Score(result(-10.0, 0.0, 0.0)))
}

func TestValue_Shapes(t *testing.T) {
	tests := []struct {
		name string
		in   extract.Result
		want float64
	}{
		{"float", extract.Result{"score": 72.5}, 72.5},
		{"int", extract.Result{"score": 72}, 72},
		{"json number", extract.Result{"score": json.Number("64")}, 64},
		{"bool", extract.Result{"score": true}, 0},
		{"null", extract.Result{"score": nil}, 0},
		{"nan", extract.Result{"score": math.NaN()}, 0},
		{"inf", extract.Result{"score": math.Inf(1)}, 0},
		{"object", extract.Result{"score": map[string]any{"value": 80.0}}, 0},
		{"list", extract.Result{"score": []any{80.0}}, 0},
		{"missing", extract.Result{"details": "x"}, 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.in, "score"))
		})
	}
}

func TestBreakdown_UsesAverageScoreForLiteracy(t *testing.T) {
	r := &diagnosis.Result{
		Completeness:   extract.Result{"score": 60.0},
		TimeAllocation: extract.Result{"score": "70分"},
		Literacy:       extract.Result{"score": 99.0, "average_score": 80.0},
	}
	assert.Equal(t, SubScores{Completeness: 60, TimeAllocation: 70, Literacy: 80}, Breakdown(r))
}
