package repository

import (
	"context"
	"errors"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
}

type projectRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewProjectRepository(db database.Querier, log *zap.Logger) ProjectRepository {
	return &projectRepository{
		db:  db,
		log: log.With(zap.String("repository", "project")),
	}
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	query := `
		SELECT id, couple_id, name, wedding_date, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var p entity.Project
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.CoupleID,
		&p.Name,
		&p.WeddingDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find project by ID",
			zap.Error(err),
			zap.String("project_id", id.String()),
		)
		return nil, fmt.Errorf("find project by ID %s: %w", id.String(), err)
	}

	return &p, nil
}
