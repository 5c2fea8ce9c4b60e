package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripguard/tripguard/internal/travelrisk"
)

// Schema is the DDL for the profiles table.
const Schema = `
CREATE TABLE IF NOT EXISTS traveler_profiles (
	profile_id   TEXT PRIMARY KEY,
	age          INTEGER NOT NULL CHECK (age >= 0),
	sex          TEXT NOT NULL CHECK (sex IN ('M', 'F', 'O')),
	conditions   TEXT[] NOT NULL DEFAULT '{}',
	pregnant     BOOLEAN NOT NULL DEFAULT FALSE,
	allergies    TEXT[] NOT NULL DEFAULT '{}',
	vaccinations TEXT[] NOT NULL DEFAULT '{}',
	medications  TEXT[] NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the profiles table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Get retrieves a profile by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Profile, error) {
	query := `
		SELECT
			profile_id, age, sex, conditions, pregnant,
			allergies, vaccinations, medications,
			created_at, updated_at
		FROM traveler_profiles
		WHERE profile_id = $1
	`

	var (
		p   Profile
		sex string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Traveler.Age,
		&sex,
		&p.Traveler.Conditions,
		&p.Traveler.Pregnant,
		&p.Traveler.Allergies,
		&p.Traveler.Vaccinations,
		&p.Traveler.Medications,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	p.Traveler.Sex = travelrisk.Sex(sex)

	return &p, nil
}

// Create stores a new profile.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO traveler_profiles (
			profile_id, age, sex, conditions, pregnant,
			allergies, vaccinations, medications,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Traveler.Age,
		string(p.Traveler.Sex),
		nonNil(p.Traveler.Conditions),
		p.Traveler.Pregnant,
		nonNil(p.Traveler.Allergies),
		nonNil(p.Traveler.Vaccinations),
		nonNil(p.Traveler.Medications),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update replaces an existing profile.
func (r *PostgresRepository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE traveler_profiles SET
			age = $2,
			sex = $3,
			conditions = $4,
			pregnant = $5,
			allergies = $6,
			vaccinations = $7,
			medications = $8,
			updated_at = $9
		WHERE profile_id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Traveler.Age,
		string(p.Traveler.Sex),
		nonNil(p.Traveler.Conditions),
		p.Traveler.Pregnant,
		nonNil(p.Traveler.Allergies),
		nonNil(p.Traveler.Vaccinations),
		nonNil(p.Traveler.Medications),
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// Delete removes a profile.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM traveler_profiles WHERE profile_id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// nonNil keeps NOT NULL array columns satisfied.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Repository = (*PostgresRepository)(nil)
