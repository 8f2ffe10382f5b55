package routing

import (
	"sort"

	"github.com/roundrobin/backend/internal/models"
)

// Match carries the first rule in the cascade that accepted the record.
type Match struct {
	RulesetID string
	Rule      models.Rule
}

// Resolve walks the eligible rulesets and returns the first matching
// rule in ascending priority order. No match is a normal terminal
// outcome, reported by the boolean, not an error. Resolve performs no
// persistence.
func Resolve(record models.Record, trigger models.TriggerType, rulesets []models.Ruleset) (Match, bool, error) {
	for _, rs := range rulesets {
		if !rs.IsActive || !rs.HasTrigger(trigger) {
			continue
		}
		rules := make([]models.Rule, len(rs.Rules))
		copy(rules, rs.Rules)
		sort.SliceStable(rules, func(i, j int) bool {
			return rules[i].Priority < rules[j].Priority
		})
		for _, rule := range rules {
			if !rule.IsActive {
				continue
			}
			ok, err := MatchRule(record, rule)
			if err != nil {
				return Match{}, false, err
			}
			if ok {
				return Match{RulesetID: rs.ID, Rule: rule}, true, nil
			}
		}
	}
	return Match{}, false, nil
}

// MatchRule evaluates a rule's conditions under its AND/OR logic.
// A rule with no conditions is a catch-all.
func MatchRule(record models.Record, rule models.Rule) (bool, error) {
	if len(rule.Conditions) == 0 {
		return true, nil
	}
	for _, cond := range rule.Conditions {
		ok, err := EvaluateCondition(record.Field(cond.Field), cond)
		if err != nil {
			return false, err
		}
		if rule.ConditionLogic == models.LogicOr {
			if ok {
				return true, nil
			}
		} else if !ok {
			return false, nil
		}
	}
	return rule.ConditionLogic != models.LogicOr, nil
}
