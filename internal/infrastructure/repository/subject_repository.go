package repository

import (
	"context"
	"errors"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/ipede/authorization-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PostgresSubjectDirectory reads subject attributes from the subjects
// table maintained by the login collaborator. Strictly read-only.
type PostgresSubjectDirectory struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewSubjectDirectory creates a PostgresSubjectDirectory
func NewSubjectDirectory(db *database.Postgres, logger *zap.Logger) domain.SubjectDirectory {
	return &PostgresSubjectDirectory{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresSubjectDirectory) FindByID(ctx context.Context, subjectID string) (*domain.Subject, error) {
	subject := &domain.Subject{}

	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, email_verified, phone
		FROM subjects WHERE id = $1
	`, subjectID).Scan(&subject.ID, &subject.Name, &subject.Email, &subject.EmailVerified, &subject.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubjectNotFound
		}
		r.logger.Error("failed to load subject", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}

	return subject, nil
}

// MemorySubjectDirectory is a static directory for development and
// tests.
type MemorySubjectDirectory struct {
	subjects map[string]*domain.Subject
}

// NewMemorySubjectDirectory creates a directory over the given subjects.
func NewMemorySubjectDirectory(subjects []*domain.Subject) *MemorySubjectDirectory {
	index := make(map[string]*domain.Subject, len(subjects))
	for _, s := range subjects {
		index[s.ID] = s
	}
	return &MemorySubjectDirectory{subjects: index}
}

func (r *MemorySubjectDirectory) FindByID(ctx context.Context, subjectID string) (*domain.Subject, error) {
	subject, ok := r.subjects[subjectID]
	if !ok {
		return nil, domain.ErrSubjectNotFound
	}
	clone := *subject
	return &clone, nil
}
