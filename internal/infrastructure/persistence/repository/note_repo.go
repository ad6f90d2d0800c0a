package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/procurehq/procureflow/internal/application/port"
	"github.com/procurehq/procureflow/internal/domain/entity"
	"github.com/procurehq/procureflow/internal/infrastructure/persistence/sqlite"
)

// NoteRepository persists finance notes.
type NoteRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNoteRepository creates a new note repository.
func NewNoteRepository(db *sqlite.DB, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{db: db, logger: logger}
}

// Create appends a finance note.
func (r *NoteRepository) Create(ctx context.Context, note *entity.FinanceNote) error {
	query := `
		INSERT INTO finance_notes (request_id, finance_user_id, note, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		note.RequestID,
		note.FinanceUserID,
		note.Note,
		note.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create finance note", zap.Int64("request_id", note.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create finance note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	note.ID = id
	return nil
}

// GetByRequestID retrieves the notes of a request in insertion order.
func (r *NoteRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.FinanceNote, error) {
	query := `
		SELECT id, request_id, finance_user_id, note, created_at
		FROM finance_notes WHERE request_id = ? ORDER BY id
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get finance notes", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get finance notes: %w", err)
	}
	defer rows.Close()

	var notes []*entity.FinanceNote
	for rows.Next() {
		var note entity.FinanceNote
		if err := rows.Scan(&note.ID, &note.RequestID, &note.FinanceUserID, &note.Note, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finance note: %w", err)
		}
		notes = append(notes, &note)
	}
	return notes, rows.Err()
}

var _ port.NoteRepository = (*NoteRepository)(nil)
