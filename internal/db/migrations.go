package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'quote_request_status') THEN
			CREATE TYPE quote_request_status AS ENUM ('DRAFT', 'SENT', 'CLOSED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'proposal_status') THEN
			CREATE TYPE proposal_status AS ENUM ('SUBMITTED', 'REVISION_REQUESTED', 'RESUBMITTED', 'ACCEPTED', 'REJECTED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('PENDING_SIGNATURES', 'ACTIVE', 'COMPLETED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'material_request_status') THEN
			CREATE TYPE material_request_status AS ENUM ('PENDING', 'PARTIALLY_APPROVED', 'APPROVED', 'REJECTED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS quote_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL,
		homeowner_id UUID NOT NULL,
		scope TEXT NOT NULL,
		status quote_request_status NOT NULL DEFAULT 'DRAFT',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_quote_requests_project_id ON quote_requests (project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_quote_requests_homeowner_id ON quote_requests (homeowner_id);`,
	`CREATE TABLE IF NOT EXISTS quote_invitees (
		quote_request_id UUID NOT NULL REFERENCES quote_requests(id) ON DELETE CASCADE,
		contractor_id UUID NOT NULL,
		invited_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (quote_request_id, contractor_id)
	);`,
	`CREATE TABLE IF NOT EXISTS proposals (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		quote_request_id UUID NOT NULL REFERENCES quote_requests(id),
		contractor_id UUID NOT NULL,
		total_amount NUMERIC(18,2) NOT NULL,
		duration_days INTEGER NOT NULL,
		status proposal_status NOT NULL DEFAULT 'SUBMITTED',
		revision_count INTEGER NOT NULL DEFAULT 0,
		source_artifact TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_proposals_active_per_contractor
		ON proposals (quote_request_id, contractor_id)
		WHERE status <> 'REJECTED';`,
	`CREATE INDEX IF NOT EXISTS idx_proposals_quote_request_id ON proposals (quote_request_id);`,
	`CREATE TABLE IF NOT EXISTS proposal_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		proposal_id UUID NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_proposal_items_proposal_id ON proposal_items (proposal_id);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		proposal_id UUID NOT NULL REFERENCES proposals(id),
		quote_request_id UUID NOT NULL REFERENCES quote_requests(id),
		homeowner_id UUID NOT NULL,
		contractor_id UUID NOT NULL,
		total_amount NUMERIC(18,2) NOT NULL,
		duration_days INTEGER NOT NULL,
		status contract_status NOT NULL DEFAULT 'PENDING_SIGNATURES',
		homeowner_signed_at TIMESTAMPTZ,
		contractor_signed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_proposal_id ON contracts (proposal_id);`,
	`CREATE TABLE IF NOT EXISTS contract_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_items_contract_id ON contract_items (contract_id);`,
	`CREATE TABLE IF NOT EXISTS supervisor_contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		supervisor_id UUID NOT NULL,
		project_id UUID NOT NULL,
		registration_fee NUMERIC(18,2) NOT NULL,
		status contract_status NOT NULL DEFAULT 'PENDING_SIGNATURES',
		supervisor_signed_at TIMESTAMPTZ,
		homeowner_signed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_supervisor_contracts_project_id ON supervisor_contracts (project_id);`,
	`CREATE TABLE IF NOT EXISTS escrow_accounts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		balance NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_escrow_accounts_contract_id ON escrow_accounts (contract_id);`,
	`CREATE TABLE IF NOT EXISTS escrow_payments (
		payment_reference VARCHAR(128) PRIMARY KEY,
		contract_id UUID NOT NULL REFERENCES contracts(id),
		amount NUMERIC(18,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_escrow_payments_contract_id ON escrow_payments (contract_id);`,
	`CREATE TABLE IF NOT EXISTS material_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL,
		contractor_id UUID NOT NULL,
		status material_request_status NOT NULL DEFAULT 'PENDING',
		homeowner_approved BOOLEAN NOT NULL DEFAULT FALSE,
		homeowner_approved_by UUID,
		homeowner_approved_at TIMESTAMPTZ,
		supervisor_approved BOOLEAN NOT NULL DEFAULT FALSE,
		supervisor_approved_by UUID,
		supervisor_approved_at TIMESTAMPTZ,
		rejection_reason TEXT,
		rejected_by UUID,
		rejected_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_material_requests_project_id ON material_requests (project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_material_requests_contractor_id ON material_requests (contractor_id);`,
	`CREATE INDEX IF NOT EXISTS idx_material_requests_status ON material_requests (status);`,
	`CREATE TABLE IF NOT EXISTS materials (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		material_request_id UUID NOT NULL REFERENCES material_requests(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		code VARCHAR(64) NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		unit VARCHAR(32) NOT NULL DEFAULT '',
		unit_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		contract_quantity NUMERIC(18,3) NOT NULL DEFAULT 0,
		actual_quantity NUMERIC(18,3),
		variance_percent NUMERIC(9,2)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_materials_material_request_id ON materials (material_request_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
