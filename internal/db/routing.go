package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/roundrobin/backend/internal/models"
	"github.com/roundrobin/backend/internal/routing"
)

func (s *Store) ActiveRulesets(ctx context.Context, trigger models.TriggerType) ([]models.Ruleset, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, trigger_types, is_active
		FROM rulesets
		WHERE is_active AND $1 = ANY(trigger_types)
		ORDER BY created_at ASC
	`, string(trigger))
	if err != nil {
		return nil, err
	}
	rulesets, err := scanRulesets(rows)
	if err != nil {
		return nil, err
	}
	return s.attachRules(ctx, rulesets)
}

func (s *Store) ListRulesets(ctx context.Context) ([]models.Ruleset, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, trigger_types, is_active
		FROM rulesets ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	rulesets, err := scanRulesets(rows)
	if err != nil {
		return nil, err
	}
	return s.attachRules(ctx, rulesets)
}

func scanRulesets(rows pgx.Rows) ([]models.Ruleset, error) {
	defer rows.Close()
	var out []models.Ruleset
	for rows.Next() {
		var rs models.Ruleset
		var triggers []string
		if err := rows.Scan(&rs.ID, &rs.Name, &triggers, &rs.IsActive); err != nil {
			return nil, err
		}
		for _, t := range triggers {
			rs.TriggerTypes = append(rs.TriggerTypes, models.TriggerType(t))
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (s *Store) attachRules(ctx context.Context, rulesets []models.Ruleset) ([]models.Ruleset, error) {
	if len(rulesets) == 0 {
		return rulesets, nil
	}
	ids := make([]string, 0, len(rulesets))
	for _, rs := range rulesets {
		ids = append(ids, rs.ID)
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, ruleset_id, name, priority, conditions, condition_logic, target_group_id, is_active
		FROM rules
		WHERE ruleset_id = ANY($1)
		ORDER BY priority ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRuleset := make(map[string][]models.Rule)
	for rows.Next() {
		var r models.Rule
		var conditions []byte
		if err := rows.Scan(&r.ID, &r.RulesetID, &r.Name, &r.Priority, &conditions, &r.ConditionLogic, &r.TargetGroupID, &r.IsActive); err != nil {
			return nil, err
		}
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
				return nil, err
			}
		}
		byRuleset[r.RulesetID] = append(byRuleset[r.RulesetID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rulesets {
		rulesets[i].Rules = byRuleset[rulesets[i].ID]
	}
	return rulesets, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, distribution_mode, is_active, cursor_position
		FROM groups ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.DistributionMode, &g.IsActive, &g.Cursor); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := s.listMembers(ctx, s.Pool, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Members = members
	}
	return out, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Store) listMembers(ctx context.Context, q querier, groupID string) ([]models.GroupMember, error) {
	rows, err := q.Query(ctx, `
		SELECT group_id, user_id, weight, credits, status, position
		FROM group_members WHERE group_id = $1 ORDER BY position ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Weight, &m.Credits, &m.Status, &m.Position); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ReserveAssignment selects the next member of a group and records the
// assignment as one transaction. The group row is locked so concurrent
// reservations observe each other's cursor and credit updates, and the
// capacity counts are taken inside the same transaction.
func (s *Store) ReserveAssignment(ctx context.Context, recordID, groupID string, ruleID *string, method string) (models.Assignment, error) {
	var assignment models.Assignment
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		var mode string
		var isActive bool
		var cursor int
		err := tx.QueryRow(ctx, `
			SELECT distribution_mode, is_active, cursor_position
			FROM groups WHERE id = $1 FOR UPDATE
		`, groupID).Scan(&mode, &isActive, &cursor)
		if err != nil {
			return err
		}
		if !isActive {
			return routing.NewConfigurationError("group %s is inactive", groupID)
		}

		candidates, err := s.loadCandidates(ctx, tx, groupID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var userID string
		switch mode {
		case models.DistributionWeighted:
			selected, updated, werr := routing.NextWeighted(candidates)
			if werr != nil {
				return werr
			}
			userID = selected
			for _, c := range updated {
				if _, uerr := tx.Exec(ctx, `
					UPDATE group_members SET credits = $1 WHERE group_id = $2 AND user_id = $3
				`, c.Credits, groupID, c.UserID); uerr != nil {
					return uerr
				}
			}
		default:
			selected, next, eerr := routing.NextEqual(candidates, cursor)
			if eerr != nil {
				return eerr
			}
			userID = selected
			if _, uerr := tx.Exec(ctx, `UPDATE groups SET cursor_position = $1 WHERE id = $2`, next, groupID); uerr != nil {
				return uerr
			}
		}

		assignment = models.Assignment{
			ID:        uuid.NewString(),
			RecordID:  recordID,
			UserID:    userID,
			GroupID:   groupID,
			RuleID:    ruleID,
			Method:    method,
			CreatedAt: now,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO assignments (id, record_id, user_id, group_id, rule_id, method, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, assignment.ID, assignment.RecordID, assignment.UserID, assignment.GroupID, assignment.RuleID, assignment.Method, assignment.CreatedAt)
		return err
	})
	if err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

// loadCandidates builds the distribution candidates for a group,
// folding member status, user status, and daily/weekly capacity into
// the eligibility flag. Positions are preserved so the cursor stays
// meaningful across calls.
func (s *Store) loadCandidates(ctx context.Context, tx pgx.Tx, groupID string) ([]routing.Candidate, error) {
	rows, err := tx.Query(ctx, `
		SELECT gm.user_id, gm.weight, gm.credits, gm.status, u.status, u.timezone, u.daily_capacity, u.weekly_capacity
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.position ASC
	`, groupID)
	if err != nil {
		return nil, err
	}

	type memberRow struct {
		cand     routing.Candidate
		tz       string
		daily    *int
		weekly   *int
		eligible bool
	}
	var members []memberRow
	for rows.Next() {
		var m memberRow
		var memberStatus, userStatus string
		if err := rows.Scan(&m.cand.UserID, &m.cand.Weight, &m.cand.Credits, &memberStatus, &userStatus, &m.tz, &m.daily, &m.weekly); err != nil {
			rows.Close()
			return nil, err
		}
		m.eligible = memberStatus == models.MemberActive && userStatus == models.MemberActive
		members = append(members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	candidates := make([]routing.Candidate, 0, len(members))
	for _, m := range members {
		if m.eligible && (m.daily != nil || m.weekly != nil) {
			ok, err := s.underCapacity(ctx, tx, m.cand.UserID, m.tz, m.daily, m.weekly, now)
			if err != nil {
				return nil, err
			}
			m.eligible = ok
		}
		m.cand.Eligible = m.eligible
		candidates = append(candidates, m.cand)
	}
	return candidates, nil
}

// underCapacity counts assignments since the user's local midnight for
// the daily limit and over the trailing seven days for the weekly one.
func (s *Store) underCapacity(ctx context.Context, tx pgx.Tx, userID, tz string, daily, weekly *int, now time.Time) (bool, error) {
	if daily != nil {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			loc = time.UTC
		}
		local := now.In(loc)
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		var count int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM assignments WHERE user_id = $1 AND created_at >= $2
		`, userID, midnight).Scan(&count); err != nil {
			return false, err
		}
		if count >= *daily {
			return false, nil
		}
	}
	if weekly != nil {
		var count int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM assignments WHERE user_id = $1 AND created_at >= $2
		`, userID, now.AddDate(0, 0, -7)).Scan(&count); err != nil {
			return false, err
		}
		if count >= *weekly {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) LatestAssignment(ctx context.Context, recordID string) (models.Assignment, bool, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, record_id, user_id, group_id, rule_id, method, created_at
		FROM assignments WHERE record_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, recordID)
	var a models.Assignment
	err := row.Scan(&a.ID, &a.RecordID, &a.UserID, &a.GroupID, &a.RuleID, &a.Method, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Assignment{}, false, nil
	}
	if err != nil {
		return models.Assignment{}, false, err
	}
	return a, true, nil
}
