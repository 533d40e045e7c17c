package genai

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

// PromptRenderer renders campaign goal text per row. Goals may carry Liquid
// placeholders referencing row columns, e.g. "offer {{ product | default:
// \"a credit card\" }} to {{ Name }}". Plain goals without placeholders pass
// through untouched.
type PromptRenderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewPromptRenderer builds a renderer with the filters campaign goals use.
func NewPromptRenderer() *PromptRenderer {
	engine := liquid.NewEngine()

	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	return &PromptRenderer{engine: engine}
}

// RenderGoal expands placeholders in goal against one row. Goals without a
// "{{" or "{%" marker skip the template engine entirely.
func (r *PromptRenderer) RenderGoal(goal string, row domain.RowRecord) (string, error) {
	if !strings.Contains(goal, "{{") && !strings.Contains(goal, "{%") {
		return goal, nil
	}

	tpl, err := r.template(goal)
	if err != nil {
		return "", fmt.Errorf("parse goal template: %w", err)
	}

	bindings := make(map[string]interface{}, len(row))
	for k, v := range row {
		bindings[k] = v
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render goal template: %w", err)
	}
	return out, nil
}

func (r *PromptRenderer) template(goal string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(goal); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := r.engine.ParseString(goal)
	if err != nil {
		return nil, err
	}
	r.cache.Store(goal, tpl)
	return tpl, nil
}
