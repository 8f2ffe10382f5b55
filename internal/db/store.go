package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roundrobin/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertRecord(ctx context.Context, r models.Record) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO records (id, name, email, phone, company, job_title, lead_source, industry, country, company_size, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, r.ID, r.Name, r.Email, r.Phone, r.Company, r.JobTitle, r.LeadSource, r.Industry, r.Country, r.CompanySize, r.CreatedAt)
	return err
}

func (s *Store) GetRecord(ctx context.Context, id string) (models.Record, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, email, phone, company, job_title, lead_source, industry, country, company_size, created_at
		FROM records WHERE id = $1
	`, id)
	var r models.Record
	if err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Company, &r.JobTitle, &r.LeadSource, &r.Industry, &r.Country, &r.CompanySize, &r.CreatedAt); err != nil {
		return models.Record{}, err
	}
	return r, nil
}

func (s *Store) ListRecords(ctx context.Context, leadSource, q string, limit, offset int) ([]models.Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, name, email, phone, company, job_title, lead_source, industry, country, company_size, created_at FROM records`
	var args []any
	var wheres []string
	if leadSource != "" {
		args = append(args, leadSource)
		wheres = append(wheres, fmt.Sprintf("lead_source = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", len(args), len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Company, &r.JobTitle, &r.LeadSource, &r.Industry, &r.Country, &r.CompanySize, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, email, status, timezone, daily_capacity, weekly_capacity
		FROM users WHERE id = $1
	`, id)
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Status, &u.Timezone, &u.DailyCapacity, &u.WeeklyCapacity); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, email, status, timezone, daily_capacity, weekly_capacity
		FROM users ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Status, &u.Timezone, &u.DailyCapacity, &u.WeeklyCapacity); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
