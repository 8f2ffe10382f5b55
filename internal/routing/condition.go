package routing

import (
	"strconv"
	"strings"

	"github.com/roundrobin/backend/internal/models"
)

// EvaluateCondition tests one record field value against a condition.
// String comparisons are case-insensitive. isBlank/isPresent never read
// the operand. Numeric operators require both sides to parse; a parse
// failure is a ConfigurationError, never a false match.
func EvaluateCondition(value string, cond models.Condition) (bool, error) {
	switch cond.Operator {
	case models.OpIsBlank:
		return value == "", nil
	case models.OpIsPresent:
		return value != "", nil
	}

	fieldValue := strings.ToLower(value)
	operand := strings.ToLower(cond.Value)

	switch cond.Operator {
	case models.OpEquals:
		return fieldValue == operand, nil
	case models.OpNotEquals:
		return fieldValue != operand, nil
	case models.OpContains:
		return strings.Contains(fieldValue, operand), nil
	case models.OpNotContains:
		return !strings.Contains(fieldValue, operand), nil
	case models.OpStartsWith:
		return strings.HasPrefix(fieldValue, operand), nil
	case models.OpGreaterThan, models.OpLessThan:
		left, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return false, NewConfigurationError("condition on field %q: value %q is not numeric", cond.Field, value)
		}
		right, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
		if err != nil {
			return false, NewConfigurationError("condition on field %q: operand %q is not numeric", cond.Field, cond.Value)
		}
		if cond.Operator == models.OpGreaterThan {
			return left > right, nil
		}
		return left < right, nil
	default:
		return false, NewConfigurationError("unknown operator %q", cond.Operator)
	}
}
