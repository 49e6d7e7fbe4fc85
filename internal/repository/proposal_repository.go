package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
)

type ProposalRepository struct {
	db *gorm.DB
	*QuoteRepository
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db, QuoteRepository: NewQuoteRepository(db)}
}

func (r *ProposalRepository) CreateProposal(ctx context.Context, p *model.Proposal) (*model.Proposal, error) {
	var saved model.Proposal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO proposals (quote_request_id, contractor_id, total_amount, duration_days, status, source_artifact)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id, quote_request_id, contractor_id, total_amount, duration_days,
				status, revision_count, source_artifact, created_at, updated_at
		`, p.QuoteRequestID, p.ContractorID, p.TotalAmount, p.DurationDays, p.Status, p.SourceArtifact).
			Scan(&saved).Error
		if err != nil {
			return err
		}
		return insertProposalItems(tx, saved.ID, p.Items)
	})
	if err != nil {
		return nil, err
	}
	return r.GetProposal(ctx, saved.ID)
}

func (r *ProposalRepository) GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	var proposal model.Proposal
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, quote_request_id, contractor_id, total_amount, duration_days,
			status, revision_count, source_artifact, created_at, updated_at
		FROM proposals
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&proposal).Error
	if err != nil {
		return nil, err
	}
	if proposal.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var items []model.ProposalItem
	err = r.db.WithContext(ctx).Raw(`
		SELECT id, proposal_id, position, name, amount, notes
		FROM proposal_items
		WHERE proposal_id = ?
		ORDER BY position ASC
	`, id).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	proposal.Items = items
	return &proposal, nil
}

func (r *ProposalRepository) MarkRevisionRequested(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE proposals
		SET status = ?, revision_count = revision_count + 1, updated_at = NOW()
		WHERE id = ? AND status IN (?, ?)
	`, model.ProposalStatusRevisionRequested, id,
		model.ProposalStatusSubmitted, model.ProposalStatusResubmitted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// ResubmitProposal replaces the proposal's terms and flips it back to
// resubmitted in one transaction, guarded on the revision being open.
func (r *ProposalRepository) ResubmitProposal(ctx context.Context, id uuid.UUID, items []model.ProposalItem, total float64, durationDays int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE proposals
			SET status = ?, total_amount = ?, duration_days = ?, updated_at = NOW()
			WHERE id = ? AND status = ?
		`, model.ProposalStatusResubmitted, total, durationDays, id,
			model.ProposalStatusRevisionRequested)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}
		if err := tx.Exec(`DELETE FROM proposal_items WHERE proposal_id = ?`, id).Error; err != nil {
			return err
		}
		return insertProposalItems(tx, id, items)
	})
}

func (r *ProposalRepository) MarkProposalRejected(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE proposals
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status NOT IN (?, ?)
	`, model.ProposalStatusRejected, id,
		model.ProposalStatusAccepted, model.ProposalStatusRejected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// AcceptProposal runs the acceptance unit: mark the proposal accepted, freeze
// its terms into a contract and close the quote request. Any failure rolls the
// whole unit back.
func (r *ProposalRepository) AcceptProposal(ctx context.Context, proposalID, homeownerID uuid.UUID) (*model.Contract, error) {
	var contract *model.Contract
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE proposals
			SET status = ?, updated_at = NOW()
			WHERE id = ? AND status IN (?, ?)
		`, model.ProposalStatusAccepted, proposalID,
			model.ProposalStatusSubmitted, model.ProposalStatusResubmitted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		var proposal model.Proposal
		if err := tx.Raw(`
			SELECT id, quote_request_id, contractor_id, total_amount, duration_days, status
			FROM proposals
			WHERE id = ?
			LIMIT 1
		`, proposalID).Scan(&proposal).Error; err != nil {
			return err
		}
		var items []model.ProposalItem
		if err := tx.Raw(`
			SELECT id, proposal_id, position, name, amount, notes
			FROM proposal_items
			WHERE proposal_id = ?
			ORDER BY position ASC
		`, proposalID).Scan(&items).Error; err != nil {
			return err
		}
		proposal.Items = items

		frozen := model.ContractFromProposal(&proposal, homeownerID)
		var saved model.Contract
		err := tx.Raw(`
			INSERT INTO contracts (proposal_id, quote_request_id, homeowner_id, contractor_id,
				total_amount, duration_days, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id, proposal_id, quote_request_id, homeowner_id, contractor_id,
				total_amount, duration_days, status, homeowner_signed_at, contractor_signed_at,
				created_at, updated_at
		`, frozen.ProposalID, frozen.QuoteRequestID, frozen.HomeownerID, frozen.ContractorID,
			frozen.TotalAmount, frozen.DurationDays, frozen.Status).Scan(&saved).Error
		if err != nil {
			return err
		}
		for _, item := range frozen.Items {
			if err := tx.Exec(`
				INSERT INTO contract_items (contract_id, position, name, amount, notes)
				VALUES (?, ?, ?, ?, ?)
			`, saved.ID, item.Position, item.Name, item.Amount, item.Notes).Error; err != nil {
				return err
			}
		}

		closeRes := tx.Exec(`
			UPDATE quote_requests
			SET status = ?, updated_at = NOW()
			WHERE id = ? AND status = ?
		`, model.QuoteStatusClosed, proposal.QuoteRequestID, model.QuoteStatusSent)
		if closeRes.Error != nil {
			return closeRes.Error
		}
		if closeRes.RowsAffected == 0 {
			return fmt.Errorf("quote request %s: %w", proposal.QuoteRequestID, ErrStaleStatus)
		}

		savedItems, err := loadContractItems(tx, saved.ID)
		if err != nil {
			return err
		}
		saved.Items = savedItems
		contract = &saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func insertProposalItems(tx *gorm.DB, proposalID uuid.UUID, items []model.ProposalItem) error {
	for _, item := range items {
		if err := tx.Exec(`
			INSERT INTO proposal_items (proposal_id, position, name, amount, notes)
			VALUES (?, ?, ?, ?, ?)
		`, proposalID, item.Position, item.Name, item.Amount, item.Notes).Error; err != nil {
			return err
		}
	}
	return nil
}

func loadContractItems(tx *gorm.DB, contractID uuid.UUID) ([]model.ContractItem, error) {
	var items []model.ContractItem
	err := tx.Raw(`
		SELECT id, contract_id, position, name, amount, notes
		FROM contract_items
		WHERE contract_id = ?
		ORDER BY position ASC
	`, contractID).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
