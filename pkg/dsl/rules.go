package dsl

import (
	"strings"

	"github.com/rushteam/bookrec/core"
)

// Rule 是一条推荐理由：表达式为 true 时输出 Text。
type Rule struct {
	Expr string `yaml:"expr" json:"expr"`
	Text string `yaml:"text" json:"text"`
}

// FallbackReason 没有任何规则命中时使用。
const FallbackReason = "recommended for you"

// DefaultRules 对应四路信号：共同作者、类别重合、文本高相似、高评分。
func DefaultRules() []Rule {
	return []Rule{
		{Expr: "signals.author >= 1.0", Text: "same author as a book you own"},
		{Expr: "signals.genre > 0.0", Text: "matches genres you read"},
		{Expr: "signals.textual > 0.3", Text: "similar to your books"},
		{Expr: "signals.popularity >= 0.8", Text: "highly rated"},
	}
}

// Ruleset 是编译好的规则集合。编译失败的规则保留在 Broken 中，从不命中。
type Ruleset struct {
	rules  []compiledRule
	Broken map[string]error
}

type compiledRule struct {
	Rule
	prg *Program
}

// NewRuleset 编译全部规则；单条规则编译失败不影响其他规则。
func NewRuleset(rules []Rule) *Ruleset {
	rs := &Ruleset{Broken: make(map[string]error)}
	for _, r := range rules {
		p, err := Compile(r.Expr)
		if err != nil {
			rs.Broken[r.Expr] = err
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, prg: p})
	}
	return rs
}

// Reasons 返回命中的理由文本（按规则顺序）以及执行失败的错误。
func (rs *Ruleset) Reasons(c *core.Candidate) ([]string, []error) {
	var (
		out  []string
		errs []error
	)
	for _, r := range rs.rules {
		if r.prg == nil {
			continue
		}
		ok, err := r.prg.Eval(c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			out = append(out, r.Text)
		}
	}
	return out, errs
}

// Reason 把命中的理由用 ", " 连接；没有命中时返回 FallbackReason。
func (rs *Ruleset) Reason(c *core.Candidate) (string, []error) {
	reasons, errs := rs.Reasons(c)
	if len(reasons) == 0 {
		return FallbackReason, errs
	}
	return strings.Join(reasons, ", "), errs
}
