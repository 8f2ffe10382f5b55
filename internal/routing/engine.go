package routing

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/roundrobin/backend/internal/models"
)

const (
	OutcomeAssigned   = "assigned"
	OutcomeUnassigned = "unassigned"
)

const (
	ReasonNoRuleMatched    = "NO_RULE_MATCHED"
	ReasonNoEligibleMember = "NO_ELIGIBLE_MEMBER"
)

// Store is the persistence contract the engine routes through.
// ReserveAssignment must run the member selection, the capacity check,
// the round-robin state advance, and the assignment insert as one
// atomic unit; concurrent reservations on the same group serialize.
type Store interface {
	GetRecord(ctx context.Context, id string) (models.Record, error)
	ActiveRulesets(ctx context.Context, trigger models.TriggerType) ([]models.Ruleset, error)
	ReserveAssignment(ctx context.Context, recordID, groupID string, ruleID *string, method string) (models.Assignment, error)
}

type Engine struct {
	Store  Store
	Logger zerolog.Logger
}

type RouteResult struct {
	Outcome    string             `json:"outcome"`
	ReasonCode string             `json:"reason_code,omitempty"`
	Assignment *models.Assignment `json:"assignment,omitempty"`
}

// RouteRecord resolves the rule cascade for a trigger and reserves the
// next member of the matched group. An unmatched record or a group with
// no eligible member leaves the record unassigned.
func (e *Engine) RouteRecord(ctx context.Context, recordID string, trigger models.TriggerType) (RouteResult, error) {
	record, err := e.Store.GetRecord(ctx, recordID)
	if err != nil {
		return RouteResult{}, err
	}

	rulesets, err := e.Store.ActiveRulesets(ctx, trigger)
	if err != nil {
		return RouteResult{}, err
	}

	match, ok, err := Resolve(record, trigger, rulesets)
	if err != nil {
		return RouteResult{}, err
	}
	if !ok {
		e.Logger.Info().
			Str("record_id", recordID).
			Str("trigger", string(trigger)).
			Msg("no rule matched, record unassigned")
		return RouteResult{Outcome: OutcomeUnassigned, ReasonCode: ReasonNoRuleMatched}, nil
	}

	ruleID := match.Rule.ID
	assignment, err := e.Store.ReserveAssignment(ctx, recordID, match.Rule.TargetGroupID, &ruleID, models.MethodAuto)
	if errors.Is(err, ErrNoEligibleMember) {
		e.Logger.Info().
			Str("record_id", recordID).
			Str("rule_id", match.Rule.ID).
			Str("group_id", match.Rule.TargetGroupID).
			Msg("no eligible member, record unassigned")
		return RouteResult{Outcome: OutcomeUnassigned, ReasonCode: ReasonNoEligibleMember}, nil
	}
	if err != nil {
		return RouteResult{}, err
	}

	e.Logger.Info().
		Str("record_id", recordID).
		Str("rule_id", match.Rule.ID).
		Str("group_id", match.Rule.TargetGroupID).
		Str("user_id", assignment.UserID).
		Msg("record routed")
	return RouteResult{Outcome: OutcomeAssigned, Assignment: &assignment}, nil
}

// ManualRouteToGroup bypasses the cascade and distributes the record
// within the named group with method=manual and no rule attached.
func (e *Engine) ManualRouteToGroup(ctx context.Context, recordID, groupID string) (models.Assignment, error) {
	if _, err := e.Store.GetRecord(ctx, recordID); err != nil {
		return models.Assignment{}, err
	}
	assignment, err := e.Store.ReserveAssignment(ctx, recordID, groupID, nil, models.MethodManual)
	if err != nil {
		return models.Assignment{}, err
	}
	e.Logger.Info().
		Str("record_id", recordID).
		Str("group_id", groupID).
		Str("user_id", assignment.UserID).
		Msg("record routed manually")
	return assignment, nil
}
