// Package dsl 是推荐理由的规则 DSL，基于 CEL (Common Expression Language)。
//
// 表达式可以访问三个变量：
//   - signals：map(string, double)，键为 textual / author / genre / popularity
//   - candidate：title / authors / categories / category / rating / similarity / hybrid / index
//   - label：候选上的 Label，键为 label 名，值为 Label.Value
//
// 示例：
//   - `signals.author >= 1.0`
//   - `signals.textual > 0.3 && candidate.category == "battle"`
//   - `"content" in label && label["recall_source"] == "content"`
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("signals", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("candidate", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
		cel.CrossTypeNumericComparisons(true),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，可并发复用。
type Program struct {
	Expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleRule, core.ErrorCodeInternalError, "init cel env", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.WrapDomainError(core.ModuleRule, core.ErrorCodeInvalidInput,
			fmt.Sprintf("compile %q", expr), issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, core.NewDomainError(core.ModuleRule, core.ErrorCodeInvalidInput,
			fmt.Sprintf("expression %q must return bool, got %s", expr, t))
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleRule, core.ErrorCodeInvalidInput,
			fmt.Sprintf("program %q", expr), err)
	}
	return &Program{Expr: expr, prg: prg}, nil
}

// Eval 在候选上执行表达式。
func (p *Program) Eval(c *core.Candidate) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(c))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.Expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return boolean, got %T", p.Expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式，空表达式视为 true。
func Evaluate(expr string, c *core.Candidate) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(c)
}

func buildInput(c *core.Candidate) map[string]any {
	signals := map[string]float64{
		"textual":    c.Signals.Textual,
		"author":     c.Signals.Author,
		"genre":      c.Signals.Genre,
		"popularity": c.Signals.Popularity,
	}

	authors := c.Book.Authors
	if authors == nil {
		authors = []string{}
	}
	categories := c.Book.Categories
	if categories == nil {
		categories = []string{}
	}
	candidate := map[string]any{
		"title":      c.Book.Title,
		"authors":    authors,
		"categories": categories,
		"category":   c.Category,
		"rating":     c.Book.DisplayRating(),
		"similarity": c.Similarity,
		"hybrid":     c.Hybrid,
		"index":      int64(c.Index),
	}

	labels := make(map[string]string, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = v.Value
	}

	return map[string]any{
		"signals":   signals,
		"candidate": candidate,
		"label":     labels,
	}
}
