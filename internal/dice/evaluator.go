package dice

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"roomchat/pkg/types"
)

// ErrBadExpression is returned for dice commands that do not parse.
var ErrBadExpression = errors.New("malformed dice expression")

// Expression grammar: NdM with an optional +K/-K modifier, e.g. "2d6+3".
var exprRegex = regexp.MustCompile(`^(\d+)[dD](\d+)\s*(?:([+-])\s*(\d+))?$`)

const (
	maxDice  = 20
	maxSides = 1000
)

// Evaluator rolls dice expressions. Pure aside from the injected roll
// source, which tests replace with a deterministic one.
type Evaluator struct {
	roll func(sides int) int
}

// NewEvaluator creates an evaluator backed by the default random source.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		roll: func(sides int) int { return rand.IntN(sides) + 1 },
	}
}

// Evaluate parses and rolls a dice command, returning the individual die
// results, the numeric total and a human-readable breakdown.
func (e *Evaluator) Evaluate(command string) (*types.DiceResult, error) {
	m := exprRegex.FindStringSubmatch(strings.TrimSpace(command))
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrBadExpression, command)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 || count > maxDice {
		return nil, fmt.Errorf("%w: dice count must be 1-%d", ErrBadExpression, maxDice)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 || sides > maxSides {
		return nil, fmt.Errorf("%w: sides must be 2-%d", ErrBadExpression, maxSides)
	}

	modifier := 0
	if m[3] != "" {
		modifier, err = strconv.Atoi(m[4])
		if err != nil {
			return nil, fmt.Errorf("%w: bad modifier", ErrBadExpression)
		}
		if m[3] == "-" {
			modifier = -modifier
		}
	}

	rolls := make([]int, count)
	total := modifier
	rollStrs := make([]string, count)
	for i := range rolls {
		rolls[i] = e.roll(sides)
		total += rolls[i]
		rollStrs[i] = strconv.Itoa(rolls[i])
	}

	detail := strings.Join(rollStrs, " + ")
	if modifier > 0 {
		detail = fmt.Sprintf("%s + %d", detail, modifier)
	} else if modifier < 0 {
		detail = fmt.Sprintf("%s - %d", detail, -modifier)
	}

	return &types.DiceResult{
		Rolls:  rolls,
		Total:  total,
		Detail: detail,
	}, nil
}
