package rules

import (
	"regexp"
	"strings"

	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	"github.com/angelmondragon/seedling-limiter/pkg/db/models"
)

// RuleInput is a rule as entered by an administrator or read from storage.
// A zero Step inherits the default step.
type RuleInput struct {
	Slug         string `json:"slug" validate:"max=200"`
	MinVariation int    `json:"min_variation"`
	MinTotal     int    `json:"min_total"`
	Step         int    `json:"step"`
	MsgVariation string `json:"msg_variation" validate:"max=2000"`
	MsgTotal     string `json:"msg_total" validate:"max=2000"`
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// normalizeRules trims input, resolves inherited steps and drops rules with a blank slug.
func normalizeRules(inputs []RuleInput, defaultStep int) []limiter.Rule {
	out := make([]limiter.Rule, 0, len(inputs))
	for _, in := range inputs {
		slug := strings.TrimSpace(in.Slug)
		if slug == "" {
			continue
		}
		step := in.Step
		if step == 0 {
			step = defaultStep
		}
		out = append(out, limiter.Rule{
			CategorySlug:      slug,
			MinPerVariation:   in.MinVariation,
			MinTotal:          in.MinTotal,
			Step:              step,
			VariationTemplate: cleanTemplate(in.MsgVariation),
			TotalTemplate:     cleanTemplate(in.MsgTotal),
		})
	}
	return out
}

// cleanTemplate strips markup; values are emphasized at render time.
func cleanTemplate(raw string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(raw, ""))
}

func inputsFromModels(rows []models.LimiterRule) []RuleInput {
	out := make([]RuleInput, 0, len(rows))
	for _, row := range rows {
		out = append(out, RuleInput{
			Slug:         row.Slug,
			MinVariation: row.MinVariation,
			MinTotal:     row.MinTotal,
			Step:         row.Step,
			MsgVariation: row.MsgVariation,
			MsgTotal:     row.MsgTotal,
		})
	}
	return out
}

// modelsFromInputs keeps the administrator's step (0 stays inherited) and
// numbers positions from 1.
func modelsFromInputs(inputs []RuleInput) []models.LimiterRule {
	out := make([]models.LimiterRule, 0, len(inputs))
	for _, in := range inputs {
		slug := strings.TrimSpace(in.Slug)
		if slug == "" {
			continue
		}
		out = append(out, models.LimiterRule{
			Position:     len(out) + 1,
			Slug:         slug,
			MinVariation: in.MinVariation,
			MinTotal:     in.MinTotal,
			Step:         in.Step,
			MsgVariation: cleanTemplate(in.MsgVariation),
			MsgTotal:     cleanTemplate(in.MsgTotal),
		})
	}
	return out
}
