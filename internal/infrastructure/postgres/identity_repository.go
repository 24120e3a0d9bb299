package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsync/internal/domain/identity"
)

// FieldEncryptor seals PII columns at rest.
type FieldEncryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var identityColumns = []string{
	"id", "connection_id", "full_name", "company_name", "document", "document_type", "tax_number",
	"birth_date", "job_title", "establishment_code", "establishment_name",
	"addresses", "phone_numbers", "emails", "relations",
}

var identityUpsertQuery = upsertQuery("identities", identityColumns)

// IdentityRepository implements identity.Repository for PostgreSQL. Document and
// tax number are encrypted when an encryptor is configured.
type IdentityRepository struct {
	db  *DB
	enc FieldEncryptor
}

func NewIdentityRepository(db *DB, enc FieldEncryptor) *IdentityRepository {
	return &IdentityRepository{db: db, enc: enc}
}

func (r *IdentityRepository) UpsertMany(ctx context.Context, identities []*identity.Identity) ([]*identity.Identity, error) {
	saved, err := upsertAll(ctx, r.db, identities, func(i *identity.Identity) string { return i.ID }, func(q querier, i *identity.Identity) (*identity.Identity, error) {
		return r.upsert(ctx, q, i)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert identities: %w", err)
	}
	return saved, nil
}

func (r *IdentityRepository) upsert(ctx context.Context, q querier, i *identity.Identity) (*identity.Identity, error) {
	// a connection has one identity; drop any row the provider replaced
	if _, err := q.ExecContext(ctx, `DELETE FROM identities WHERE connection_id = $1 AND id <> $2`, i.ConnectionID, i.ID); err != nil {
		return nil, fmt.Errorf("identity %s: failed to replace previous identity: %w", i.ID, err)
	}

	var prevDocument, prevTaxNumber *string
	err := q.QueryRowContext(ctx, `SELECT document, tax_number FROM identities WHERE id = $1 FOR UPDATE`, i.ID).
		Scan(&prevDocument, &prevTaxNumber)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity %s: %w", i.ID, err)
	}

	document, err := r.seal(i.Document, prevDocument)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", i.ID, err)
	}
	taxNumber, err := r.seal(i.TaxNumber, prevTaxNumber)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", i.ID, err)
	}

	addresses, err := jsonbParam(i.Addresses)
	if err != nil {
		return nil, err
	}
	phones, err := jsonbParam(i.PhoneNumbers)
	if err != nil {
		return nil, err
	}
	emails, err := jsonbParam(i.Emails)
	if err != nil {
		return nil, err
	}
	relations, err := jsonbParam(i.Relations)
	if err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, identityUpsertQuery,
		i.ID, i.ConnectionID, i.FullName, i.CompanyName, document, i.DocumentType, taxNumber,
		i.BirthDate, i.JobTitle, i.EstablishmentCode, i.EstablishmentName,
		addresses, phones, emails, relations,
	)

	saved, err := r.scanIdentity(row)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", i.ID, err)
	}
	return saved, nil
}

// seal encrypts plaintext, reusing the stored ciphertext when it still decrypts
// to the same value so unchanged identities are not rewritten.
func (r *IdentityRepository) seal(plaintext, stored *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	if r.enc == nil {
		return plaintext, nil
	}

	if stored != nil {
		if prev, err := r.enc.Decrypt(*stored); err == nil && prev == *plaintext {
			return stored, nil
		}
	}

	sealed, err := r.enc.Encrypt(*plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt field: %w", err)
	}
	return &sealed, nil
}

func (r *IdentityRepository) open(stored *string) (*string, error) {
	if stored == nil || r.enc == nil {
		return stored, nil
	}
	plain, err := r.enc.Decrypt(*stored)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt field: %w", err)
	}
	return &plain, nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*identity.Identity, error) {
	query := `SELECT ` + selectColumns(identityColumns) + ` FROM identities WHERE id = $1`

	i, err := r.scanIdentity(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return i, nil
}

func (r *IdentityRepository) GetByConnectionID(ctx context.Context, connectionID string) (*identity.Identity, error) {
	query := `SELECT ` + selectColumns(identityColumns) + ` FROM identities WHERE connection_id = $1`

	i, err := r.scanIdentity(r.db.QueryRowContext(ctx, query, connectionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity by connection: %w", err)
	}
	return i, nil
}

func (r *IdentityRepository) scanIdentity(row rowScanner) (*identity.Identity, error) {
	var i identity.Identity
	var addresses, phones, emails, relations []byte

	err := row.Scan(
		&i.ID, &i.ConnectionID, &i.FullName, &i.CompanyName, &i.Document, &i.DocumentType, &i.TaxNumber,
		&i.BirthDate, &i.JobTitle, &i.EstablishmentCode, &i.EstablishmentName,
		&addresses, &phones, &emails, &relations,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if i.Document, err = r.open(i.Document); err != nil {
		return nil, err
	}
	if i.TaxNumber, err = r.open(i.TaxNumber); err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{addresses, &i.Addresses},
		{phones, &i.PhoneNumbers},
		{emails, &i.Emails},
		{relations, &i.Relations},
	} {
		if err := scanJSONB(col.raw, col.dst); err != nil {
			return nil, err
		}
	}

	i.BirthDate = utcPtr(i.BirthDate)
	i.CreatedAt = utc(i.CreatedAt)
	i.UpdatedAt = utc(i.UpdatedAt)
	return &i, nil
}
