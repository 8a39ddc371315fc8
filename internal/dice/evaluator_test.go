package dice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedEvaluator rolls the same value for every die.
func fixedEvaluator(value int) *Evaluator {
	return &Evaluator{roll: func(sides int) int { return value }}
}

func TestEvaluator_SimpleExpression(t *testing.T) {
	req := require.New(t)
	result, err := fixedEvaluator(4).Evaluate("2d6")

	req.NoError(err)
	req.Equal([]int{4, 4}, result.Rolls)
	req.Equal(8, result.Total)
	req.Equal("4 + 4", result.Detail)
}

func TestEvaluator_PositiveModifier(t *testing.T) {
	req := require.New(t)
	result, err := fixedEvaluator(5).Evaluate("2d6+3")

	req.NoError(err)
	req.Equal(13, result.Total)
	req.Equal("5 + 5 + 3", result.Detail)
}

func TestEvaluator_NegativeModifier(t *testing.T) {
	req := require.New(t)
	result, err := fixedEvaluator(2).Evaluate("1d20-1")

	req.NoError(err)
	req.Equal(1, result.Total)
	req.Equal("2 - 1", result.Detail)
}

func TestEvaluator_ResultsStayWithinBounds(t *testing.T) {
	req := require.New(t)
	evaluator := NewEvaluator()

	for i := 0; i < 100; i++ {
		result, err := evaluator.Evaluate("2d6+3")
		req.NoError(err)
		req.GreaterOrEqual(result.Total, 5)
		req.LessOrEqual(result.Total, 15)
		req.Len(result.Rolls, 2)
		for _, roll := range result.Rolls {
			req.GreaterOrEqual(roll, 1)
			req.LessOrEqual(roll, 6)
		}
	}
}

func TestEvaluator_AcceptsWhitespaceAndUpperCaseD(t *testing.T) {
	req := require.New(t)
	_, err := fixedEvaluator(1).Evaluate("  3D8 + 2 ")
	req.NoError(err)
}

func TestEvaluator_RejectsMalformedExpressions(t *testing.T) {
	req := require.New(t)
	evaluator := NewEvaluator()

	for _, command := range []string{
		"", "abc", "d6", "2d", "2x6", "2d6+", "2d6*3", "-1d6",
		"0d6",    // no dice
		"99d6",   // too many dice
		"1d1",    // degenerate die
		"1d9999", // too many sides
	} {
		_, err := evaluator.Evaluate(command)
		req.ErrorIs(err, ErrBadExpression, "command %q should be rejected", command)
	}
}
