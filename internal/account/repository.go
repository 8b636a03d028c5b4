package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"resumecraft/internal/storage"
)

// SQLiteRepository stores records as JSON in the local sqlite store.
type SQLiteRepository struct {
	store *storage.Store
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(store *storage.Store) *SQLiteRepository {
	return &SQLiteRepository{store: store}
}

func (r *SQLiteRepository) Get(ctx context.Context, email string) (Record, error) {
	raw, err := r.store.GetAccount(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, fmt.Errorf("decoding account %s: %w", email, err)
	}
	return record, nil
}

func (r *SQLiteRepository) Emails(ctx context.Context) ([]string, error) {
	emails, err := r.store.ListAccountEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return emails, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding account %s: %w", record.Email, err)
	}
	return r.store.PutAccount(ctx, record.Email, raw)
}
