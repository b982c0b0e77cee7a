package orchestrator

import (
	"context"
	"fmt"
	"io"
)

// CheckSyntax compiles code without running it and reports the verdict to
// out. Returns false for a syntax error.
func (o *Orchestrator) CheckSyntax(ctx context.Context, code string, out io.Writer) (bool, error) {
	result, err := o.interpreter.CheckSyntax(ctx, code)
	o.metrics.SyntaxChecked(result.OK, err)
	if err != nil {
		return false, err
	}

	o.logger.Info("syntax_checked", "ok", result.OK, "line", result.Line)
	fmt.Fprintln(out, result.String())
	return result.OK, nil
}
