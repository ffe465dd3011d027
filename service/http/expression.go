package http

import (
	"fmt"

	"github.com/google/shlex"
)

type Expression struct {
	Expr string `json:"expression"`
	Pid  int    `json:"pid"`
}

func newExpression(expr string, pid int) *Expression {
	return &Expression{Expr: expr, Pid: pid}
}

// resolve splits the expression into the command word and its
// arguments. Quoting follows shell rules so filter patterns may carry
// spaces.
func (e *Expression) resolve() (string, []string, error) {
	tokens, err := shlex.Split(e.Expr)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", nil, fmt.Errorf("empty expression")
	}
	return tokens[0], tokens[1:], nil
}
