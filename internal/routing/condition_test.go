package routing

import (
	"testing"

	"github.com/roundrobin/backend/internal/models"
)

func TestEvaluateCondition_Operators(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		operator models.Operator
		operand  string
		want     bool
	}{
		{"equals match", "Website", models.OpEquals, "website", true},
		{"equals mismatch", "Referral", models.OpEquals, "website", false},
		{"notEquals", "Referral", models.OpNotEquals, "website", true},
		{"contains", "Acme Software Inc", models.OpContains, "software", true},
		{"contains mismatch", "Acme Hardware", models.OpContains, "software", false},
		{"notContains", "Acme Hardware", models.OpNotContains, "software", true},
		{"startsWith", "VP of Sales", models.OpStartsWith, "vp", true},
		{"startsWith mismatch", "Head of Sales", models.OpStartsWith, "vp", false},
		{"greaterThan", "500", models.OpGreaterThan, "100", true},
		{"greaterThan equal is false", "100", models.OpGreaterThan, "100", false},
		{"lessThan", "50", models.OpLessThan, "100", true},
		{"isBlank on empty", "", models.OpIsBlank, "ignored", true},
		{"isBlank on value", "x", models.OpIsBlank, "ignored", false},
		{"isPresent on value", "x", models.OpIsPresent, "ignored", true},
		{"isPresent on empty", "", models.OpIsPresent, "ignored", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EvaluateCondition(tc.value, models.Condition{Field: "f", Operator: tc.operator, Value: tc.operand})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEvaluateCondition_CaseInsensitive(t *testing.T) {
	ok, err := EvaluateCondition("ENTERPRISE", models.Condition{Field: "company_size", Operator: models.OpEquals, Value: "enterprise"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected case-insensitive equals to match")
	}
}

func TestEvaluateCondition_NonNumericValue(t *testing.T) {
	_, err := EvaluateCondition("abc", models.Condition{Field: "company_size", Operator: models.OpGreaterThan, Value: "100"})
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestEvaluateCondition_NonNumericOperand(t *testing.T) {
	_, err := EvaluateCondition("200", models.Condition{Field: "company_size", Operator: models.OpLessThan, Value: "many"})
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestEvaluateCondition_UnknownOperator(t *testing.T) {
	_, err := EvaluateCondition("x", models.Condition{Field: "f", Operator: "matches", Value: "x"})
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
