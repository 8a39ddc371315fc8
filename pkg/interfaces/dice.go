package interfaces

import "roomchat/pkg/types"

// DiceEvaluator is the external dice-arithmetic collaborator: a pure
// function from command text to individual rolls, total and a
// human-readable detail string. Fails with a parse error on bad syntax.
type DiceEvaluator interface {
	Evaluate(command string) (*types.DiceResult, error)
}
