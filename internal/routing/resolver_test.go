package routing

import (
	"testing"

	"github.com/roundrobin/backend/internal/models"
)

func websiteReferralRuleset() models.Ruleset {
	return models.Ruleset{
		ID:           "rs1",
		IsActive:     true,
		TriggerTypes: []models.TriggerType{models.TriggerContactCreated, models.TriggerManual},
		Rules: []models.Rule{
			{
				ID: "r-referral", RulesetID: "rs1", Priority: 2, IsActive: true,
				ConditionLogic: models.LogicAnd,
				Conditions:     []models.Condition{{Field: "leadSource", Operator: models.OpEquals, Value: "Referral"}},
				TargetGroupID:  "group-b",
			},
			{
				ID: "r-website", RulesetID: "rs1", Priority: 1, IsActive: true,
				ConditionLogic: models.LogicAnd,
				Conditions:     []models.Condition{{Field: "leadSource", Operator: models.OpEquals, Value: "Website"}},
				TargetGroupID:  "group-a",
			},
		},
	}
}

func TestResolve_FirstMatchByPriority(t *testing.T) {
	rulesets := []models.Ruleset{websiteReferralRuleset()}

	match, ok, err := Resolve(models.Record{LeadSource: "Website"}, models.TriggerContactCreated, rulesets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || match.Rule.TargetGroupID != "group-a" {
		t.Fatalf("expected website lead in group-a, got %+v ok=%v", match, ok)
	}

	match, ok, err = Resolve(models.Record{LeadSource: "Referral"}, models.TriggerContactCreated, rulesets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || match.Rule.TargetGroupID != "group-b" {
		t.Fatalf("expected referral lead in group-b, got %+v ok=%v", match, ok)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	rulesets := []models.Ruleset{websiteReferralRuleset()}
	_, ok, err := Resolve(models.Record{LeadSource: "Cold Call"}, models.TriggerContactCreated, rulesets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no match for unrouted source")
	}
}

func TestResolve_TriggerFilter(t *testing.T) {
	rulesets := []models.Ruleset{websiteReferralRuleset()}
	_, ok, err := Resolve(models.Record{LeadSource: "Website"}, models.TriggerFormSubmitted, rulesets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ruleset to be skipped for unlisted trigger")
	}
}

func TestResolve_SkipsInactive(t *testing.T) {
	rs := websiteReferralRuleset()
	rs.Rules[1].IsActive = false // the website rule
	match, ok, err := Resolve(models.Record{LeadSource: "Website"}, models.TriggerContactCreated, []models.Ruleset{rs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected inactive rule to be skipped, matched %+v", match)
	}

	rs.IsActive = false
	rs.Rules[1].IsActive = true
	_, ok, err = Resolve(models.Record{LeadSource: "Website"}, models.TriggerContactCreated, []models.Ruleset{rs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected inactive ruleset to be skipped")
	}
}

func TestResolve_CatchAllAfterSpecific(t *testing.T) {
	rs := websiteReferralRuleset()
	rs.Rules = append(rs.Rules, models.Rule{
		ID: "r-default", RulesetID: "rs1", Priority: 99, IsActive: true,
		ConditionLogic: models.LogicAnd,
		TargetGroupID:  "group-default",
	})

	match, ok, err := Resolve(models.Record{LeadSource: "Cold Call"}, models.TriggerContactCreated, []models.Ruleset{rs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || match.Rule.ID != "r-default" {
		t.Fatalf("expected catch-all rule, got %+v", match)
	}

	match, _, err = Resolve(models.Record{LeadSource: "Website"}, models.TriggerContactCreated, []models.Ruleset{rs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Rule.ID != "r-website" {
		t.Fatalf("expected specific rule to win over catch-all, got %s", match.Rule.ID)
	}
}

func TestMatchRule_AndOr(t *testing.T) {
	record := models.Record{Industry: "Software", Country: "Germany"}

	and := models.Rule{
		IsActive: true, ConditionLogic: models.LogicAnd,
		Conditions: []models.Condition{
			{Field: "industry", Operator: models.OpEquals, Value: "Software"},
			{Field: "country", Operator: models.OpEquals, Value: "France"},
		},
	}
	ok, err := MatchRule(record, and)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected AND rule with one failing condition to reject")
	}

	or := and
	or.ConditionLogic = models.LogicOr
	ok, err = MatchRule(record, or)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected OR rule with one passing condition to accept")
	}
}

func TestMatchRule_UnknownFieldIsBlank(t *testing.T) {
	rule := models.Rule{
		IsActive: true, ConditionLogic: models.LogicAnd,
		Conditions: []models.Condition{{Field: "budget", Operator: models.OpIsBlank, Value: ""}},
	}
	ok, err := MatchRule(models.Record{Name: "x"}, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected unknown field to evaluate as blank")
	}
}
