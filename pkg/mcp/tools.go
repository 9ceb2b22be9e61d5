package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/expressive/internal/compose"
	"github.com/rendis/expressive/internal/rules"
	"github.com/rendis/expressive/pkg/expressive"
	"github.com/rendis/expressive/pkg/schema"
)

// compileResult is returned by expressive.compile and embedded in evaluate results.
type compileResult struct {
	Expression string            `json:"expression"`
	Fields     map[string]string `json:"fields"`
	Constants  map[string]any    `json:"constants"`
}

// errorResult describes a rejected expression.
type errorResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// handleCompile compiles an expression against the declared context.
func (s *Server) handleCompile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pred, res := s.compile(ctx, req)
	if res != nil {
		return res, nil
	}
	return marshalResult(describe(pred))
}

// handleEvaluate compiles an expression and evaluates it against data.
func (s *Server) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data := mcp.ParseStringMap(req, "data", nil)
	if data == nil {
		return mcp.NewToolResultError("data is required"), nil
	}

	pred, res := s.compile(ctx, req)
	if res != nil {
		return res, nil
	}

	result, err := pred.Eval(data)
	if err != nil {
		return errorToolResult(err)
	}
	return marshalResult(map[string]any{
		"result":  result,
		"compile": describe(pred),
	})
}

// handleCompose evaluates a composition template over boolean results.
func (s *Server) handleCompose(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	template, err := req.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError("template is required"), nil
	}
	raw, ok := req.GetArguments()["results"].([]any)
	if !ok {
		return mcp.NewToolResultError("results must be an array of booleans"), nil
	}
	results := make([]bool, len(raw))
	for i, v := range raw {
		b, ok := v.(bool)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("results[%d] is %T, expected boolean", i, v)), nil
		}
		results[i] = b
	}

	formula, err := compose.Substitute(template, results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compose failed: %v", err)), nil
	}
	verdict, err := compose.Formula(formula)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compose failed: %v", err)), nil
	}
	return marshalResult(map[string]any{
		"formula": formula,
		"verdict": verdict,
	})
}

// compile builds a schema from the request's context arguments and compiles
// the expression on a fresh engine. A non-nil result reports the failure.
func (s *Server) compile(ctx context.Context, req mcp.CallToolRequest) (*expressive.Predicate, *mcp.CallToolResult) {
	expression, err := req.RequireString("expression")
	if err != nil {
		return nil, mcp.NewToolResultError("expression is required")
	}

	args := req.GetArguments()
	raw, err := json.Marshal(map[string]any{
		"fields":    args["fields"],
		"enums":     args["enums"],
		"constants": args["constants"],
	})
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid context: %v", err))
	}
	decl, err := rules.ParseContext(raw)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	sch, err := decl.Schema()
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	var opts []expressive.Option
	opts = append(opts, expressive.WithLogger(s.logger))
	if s.conditional {
		opts = append(opts, expressive.WithConditional())
	}
	engine := expressive.New(opts...)
	if err := engine.RegisterToolchain(); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("register toolchain: %v", err))
	}

	pred, err := engine.Parse(sch, expression)
	if err != nil {
		s.logger.DebugContext(ctx, "tool rejected expression", slog.String("expression", expression))
		res, _ := errorToolResult(err)
		return nil, res
	}
	return pred, nil
}

func describe(pred *expressive.Predicate) compileResult {
	fields := make(map[string]string)
	for path, t := range pred.Fields() {
		fields[path] = t.String()
	}
	return compileResult{
		Expression: pred.Expression(),
		Fields:     fields,
		Constants:  pred.Constants(),
	}
}

// errorToolResult reports an engine error as a JSON tool error.
func errorToolResult(err error) (*mcp.CallToolResult, error) {
	out := errorResult{Code: schema.ErrCodeEvaluation, Message: err.Error()}
	var exprErr *schema.ExprError
	if errors.As(err, &exprErr) {
		out = errorResult{
			Code:    exprErr.Code,
			Message: exprErr.Message,
			Line:    exprErr.Location.Line,
			Column:  exprErr.Location.Column,
			Excerpt: exprErr.Excerpt(),
		}
	}
	res, rerr := marshalResult(map[string]any{"error": out})
	if rerr != nil || res == nil {
		return res, rerr
	}
	res.IsError = true
	return res, nil
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
