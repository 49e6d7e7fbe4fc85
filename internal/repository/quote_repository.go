package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) CreateQuoteRequest(ctx context.Context, q *model.QuoteRequest) (*model.QuoteRequest, error) {
	var saved model.QuoteRequest
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO quote_requests (project_id, homeowner_id, scope, status)
		VALUES (?, ?, ?, ?)
		RETURNING id, project_id, homeowner_id, scope, status, created_at, updated_at
	`, q.ProjectID, q.HomeownerID, q.Scope, q.Status).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *QuoteRepository) GetQuoteRequest(ctx context.Context, id uuid.UUID) (*model.QuoteRequest, error) {
	var quote model.QuoteRequest
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, project_id, homeowner_id, scope, status, created_at, updated_at
		FROM quote_requests
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var invitees []uuid.UUID
	err = r.db.WithContext(ctx).Raw(`
		SELECT contractor_id
		FROM quote_invitees
		WHERE quote_request_id = ?
		ORDER BY invited_at ASC
	`, id).Scan(&invitees).Error
	if err != nil {
		return nil, err
	}
	quote.Invitees = invitees
	return &quote, nil
}

// AddInvitee appends a contractor to the invitee set. The insert is guarded on
// the request still accepting invitees; a contractor already on the set is
// silently skipped.
func (r *QuoteRepository) AddInvitee(ctx context.Context, quoteID, contractorID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var status model.QuoteStatus
		err := tx.Raw(`
			SELECT status FROM quote_requests WHERE id = ? FOR UPDATE
		`, quoteID).Scan(&status).Error
		if err != nil {
			return err
		}
		if !status.AcceptsInvitees() {
			return ErrStaleStatus
		}
		return tx.Exec(`
			INSERT INTO quote_invitees (quote_request_id, contractor_id)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, quoteID, contractorID).Error
	})
}

// UpdateQuoteStatus moves a quote request between statuses with a guard on the
// current one, so concurrent transitions cannot clobber each other.
func (r *QuoteRepository) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, from []model.QuoteStatus, to model.QuoteStatus) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE quote_requests
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status IN ?
	`, to, id, statusList(from))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func statusList(statuses []model.QuoteStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
