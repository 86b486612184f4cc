// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package team provides the PostgreSQL implementation for team and roster
data access.

Participant role sets are stored as a Postgres text[] column and scanned
directly into Go slices by pgx.
*/
package team

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/database/schema"
	"github.com/mangetsu/mangetsu/internal/platform/dberr"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

// # PostgreSQL Repository

// repository implements the [Repository] interface using pgx.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed team store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// # Team Reads

func (repository *repository) List(context context.Context, limit, offset int) ([]*Team, int, error) {
	t := schema.CatalogTeam
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, COUNT(*) OVER() AS total_count
		FROM %s
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2
	`, t.ID, t.Name, t.Slug, t.Description, t.CreatedAt, t.Table, t.CreatedAt)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*Team
	var totalCount int

	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Slug, &team.Description, &team.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	return teams, totalCount, nil
}

func (repository *repository) FindByID(context context.Context, id string) (*Team, error) {
	return repository.findBy(context, schema.CatalogTeam.ID, id)
}

func (repository *repository) FindBySlug(context context.Context, slug string) (*Team, error) {
	return repository.findBy(context, schema.CatalogTeam.Slug, slug)
}

func (repository *repository) findBy(context context.Context, column, value string) (*Team, error) {
	t := schema.CatalogTeam
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		t.ID, t.Name, t.Slug, t.Description, t.CreatedAt, t.Table, column)

	var team Team
	err := repository.pool.QueryRow(context, query, value).
		Scan(&team.ID, &team.Name, &team.Slug, &team.Description, &team.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "team")
	}
	return &team, nil
}

// # Team Writes

func (repository *repository) Create(context context.Context, team *Team) error {
	t := schema.CatalogTeam
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, t.Table, t.ID, t.Name, t.Slug, t.Description, t.CreatedAt)

	err := repository.pool.QueryRow(context, query,
		team.ID, team.Name, team.Slug, team.Description,
	).Scan(&team.CreatedAt)

	if dberr.IsUniqueViolation(err, "team_name_key") || dberr.IsUniqueViolation(err, "team_slug_key") {
		return apperr.Conflict("A team with this name already exists")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to create team: %w", err)
	}
	return nil
}

func (repository *repository) Update(context context.Context, team *Team) error {
	t := schema.CatalogTeam
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, t.Table, t.Description, t.ID)

	tag, err := repository.pool.Exec(context, query, team.ID, team.Description)
	if err != nil {
		return fmt.Errorf("postgres: failed to update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("team")
	}
	return nil
}

func (repository *repository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.CatalogTeam.Table, schema.CatalogTeam.ID)

	if _, err := repository.pool.Exec(context, query, id); err != nil {
		return fmt.Errorf("postgres: failed to delete team: %w", err)
	}
	return nil
}

func (repository *repository) HasPublishedChapters(context context.Context, teamID string) (bool, error) {
	c := schema.CatalogChapter
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = true)`,
		c.Table, c.TeamID, c.IsPublished)

	var exists bool
	if err := repository.pool.QueryRow(context, query, teamID).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: failed to check published chapters: %w", err)
	}
	return exists, nil
}

func (repository *repository) PageBlobKeys(context context.Context, teamID string) ([]string, error) {
	i := schema.CatalogChapterImage
	c := schema.CatalogChapter
	query := fmt.Sprintf(`
		SELECT i.%s
		FROM %s i
		JOIN %s c ON i.%s = c.%s
		WHERE c.%s = $1
	`, i.BlobKey, i.Table, c.Table, i.ChapterID, c.ID, c.TeamID)

	rows, err := repository.pool.Query(context, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list team blob keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan blob key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// # Roster

func (repository *repository) ListParticipants(context context.Context, teamID string) ([]*Participant, error) {
	p := schema.CatalogTeamParticipant
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		p.ID, p.UserID, p.TeamID, p.Roles, p.Table, p.TeamID)

	rows, err := repository.pool.Query(context, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		var participant Participant
		if err := rows.Scan(&participant.ID, &participant.UserID, &participant.TeamID, &participant.Roles); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan participant: %w", err)
		}
		participants = append(participants, &participant)
	}
	return participants, nil
}

func (repository *repository) FindParticipant(context context.Context, userID, teamID string) (*Participant, error) {
	p := schema.CatalogTeamParticipant
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s = $2`,
		p.ID, p.UserID, p.TeamID, p.Roles, p.Table, p.UserID, p.TeamID)

	var participant Participant
	err := repository.pool.QueryRow(context, query, userID, teamID).
		Scan(&participant.ID, &participant.UserID, &participant.TeamID, &participant.Roles)
	if err != nil {
		return nil, dberr.Wrap(err, "participant")
	}
	return &participant, nil
}

func (repository *repository) UpsertParticipant(context context.Context, participant *Participant) error {
	if participant.ID == "" {
		participant.ID = uuid.New()
	}

	p := schema.CatalogTeamParticipant
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)
		ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s
	`, p.Table, p.ID, p.UserID, p.TeamID, p.Roles, p.UserID, p.TeamID, p.Roles, p.Roles)

	_, err := repository.pool.Exec(context, query,
		participant.ID, participant.UserID, participant.TeamID, participant.Roles)
	if dberr.IsForeignKeyViolation(err) {
		return apperr.NotFound("team")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert participant: %w", err)
	}
	return nil
}

func (repository *repository) RemoveParticipant(context context.Context, userID, teamID string) error {
	p := schema.CatalogTeamParticipant
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		p.Table, p.UserID, p.TeamID)

	if _, err := repository.pool.Exec(context, query, userID, teamID); err != nil {
		return fmt.Errorf("postgres: failed to remove participant: %w", err)
	}
	return nil
}

func (repository *repository) CountAdmins(context context.Context, teamID string) (int, error) {
	p := schema.CatalogTeamParticipant
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND $2 = ANY(%s)`,
		p.Table, p.TeamID, p.Roles)

	var count int
	if err := repository.pool.QueryRow(context, query, teamID, RoleAdmin).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: failed to count team admins: %w", err)
	}
	return count, nil
}
