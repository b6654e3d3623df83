package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const entryColumns = `id, user_id, loan_id, bill_id, savings_account_id, receivable_id, entry_type, entry_date,
	description, reference, total_debit, total_credit, created_at`

const lineColumns = `id, entry_id, line_number, account_name, account_category, side, amount, description`

type journalRepository struct {
	db *sqlx.DB
}

func NewJournalRepository(db *sqlx.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) GetJournalEntry(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE id = $1`

	var entry domain.JournalEntry
	err := r.db.GetContext(ctx, &entry, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.NewNotFoundError("JOURNAL_ENTRY_NOT_FOUND", "Journal entry "+id.String()+" not found", customError.ErrNotFound)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	entries := []*domain.JournalEntry{&entry}
	if err := r.attachLines(ctx, entries); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepository) ListJournalEntriesByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id = $1 ORDER BY entry_date DESC, created_at DESC LIMIT $2`

	var entries []*domain.JournalEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err := r.attachLines(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *journalRepository) ListJournalEntriesByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE loan_id = $1 ORDER BY entry_date, created_at`

	var entries []*domain.JournalEntry
	if err := r.db.SelectContext(ctx, &entries, query, loanID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err := r.attachLines(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *journalRepository) attachLines(ctx context.Context, entries []*domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, 0, len(entries))
	byID := make(map[uuid.UUID]*domain.JournalEntry, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID.String())
		byID[e.ID] = e
	}

	query := `SELECT ` + lineColumns + ` FROM journal_entry_lines WHERE entry_id = ANY($1::uuid[]) ORDER BY entry_id, line_number`

	var lines []domain.JournalEntryLine
	if err := r.db.SelectContext(ctx, &lines, query, pq.Array(ids)); err != nil {
		return customError.WrapDatabaseError(err)
	}

	for _, line := range lines {
		if e, ok := byID[line.EntryID]; ok {
			e.Lines = append(e.Lines, line)
		}
	}
	return nil
}
