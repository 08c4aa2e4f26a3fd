package actions

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// CompileResponseExpr compiles a response expression. The expression sees the
// decoded ERP payload as its environment and must yield a string.
func CompileResponseExpr(src string) (*vm.Program, error) {
	program, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid response expression %q: %w", src, err)
	}
	return program, nil
}

// exprCache memoizes compiled response expressions by source.
type exprCache struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

func (c *exprCache) eval(src string, data map[string]any) (string, error) {
	c.mu.Lock()
	program, ok := c.programs[src]
	c.mu.Unlock()
	if !ok {
		var err error
		program, err = CompileResponseExpr(src)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		if c.programs == nil {
			c.programs = make(map[string]*vm.Program)
		}
		c.programs[src] = program
		c.mu.Unlock()
	}

	env := data
	if env == nil {
		env = map[string]any{}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate response expression: %w", err)
	}
	s, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("response expression returned %T, want string", out)
	}
	return s, nil
}
