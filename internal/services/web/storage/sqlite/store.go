package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/giving.space/internal/platform/storage/sqlitemigrate"
	webstorage "github.com/louisbranch/giving.space/internal/services/web/storage"
	"github.com/louisbranch/giving.space/internal/services/web/storage/sqlite/migrations"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store persists campaign receipts in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens and migrates a receipts SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutReceipt inserts or replaces one receipt.
func (s *Store) PutReceipt(ctx context.Context, receipt webstorage.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	campaignID := strings.TrimSpace(receipt.CampaignID)
	receiptID := strings.TrimSpace(receipt.ID)
	if campaignID == "" {
		return fmt.Errorf("campaign id is required")
	}
	if receiptID == "" {
		return fmt.Errorf("receipt id is required")
	}
	if receipt.Amount.IsNegative() {
		return fmt.Errorf("receipt amount must not be negative")
	}
	if receipt.IssuedAt.IsZero() {
		return fmt.Errorf("receipt issued at is required")
	}

	now := s.now().UTC()
	createdAt := receipt.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := receipt.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO receipts (
		   campaign_id,
		   receipt_id,
		   vendor,
		   description,
		   category_id,
		   amount,
		   issued_at,
		   document_url,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(campaign_id, receipt_id) DO UPDATE SET
		   vendor = excluded.vendor,
		   description = excluded.description,
		   category_id = excluded.category_id,
		   amount = excluded.amount,
		   issued_at = excluded.issued_at,
		   document_url = excluded.document_url,
		   updated_at = excluded.updated_at`,
		campaignID,
		receiptID,
		strings.TrimSpace(receipt.Vendor),
		strings.TrimSpace(receipt.Description),
		strings.TrimSpace(receipt.CategoryID),
		receipt.Amount.String(),
		toMillis(receipt.IssuedAt),
		strings.TrimSpace(receipt.DocumentURL),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put receipt: %w", err)
	}
	return nil
}

const receiptColumns = `campaign_id, receipt_id, vendor, description, category_id,
		        amount, issued_at, document_url, created_at, updated_at`

// GetReceipt returns one receipt by campaign and receipt ID.
func (s *Store) GetReceipt(ctx context.Context, campaignID, receiptID string) (webstorage.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return webstorage.Receipt{}, err
	}
	if s == nil || s.sqlDB == nil {
		return webstorage.Receipt{}, fmt.Errorf("storage is not configured")
	}
	campaignID = strings.TrimSpace(campaignID)
	receiptID = strings.TrimSpace(receiptID)
	if campaignID == "" || receiptID == "" {
		return webstorage.Receipt{}, fmt.Errorf("campaign id and receipt id are required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+receiptColumns+`
		   FROM receipts
		  WHERE campaign_id = ? AND receipt_id = ?`,
		campaignID,
		receiptID,
	)
	receipt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webstorage.Receipt{}, webstorage.ErrNotFound
		}
		return webstorage.Receipt{}, fmt.Errorf("get receipt: %w", err)
	}
	return receipt, nil
}

// ListCampaignReceipts returns every receipt for one campaign, newest first.
func (s *Store) ListCampaignReceipts(ctx context.Context, campaignID string) ([]webstorage.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, fmt.Errorf("campaign id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+receiptColumns+`
		   FROM receipts
		  WHERE campaign_id = ?
		  ORDER BY issued_at DESC, receipt_id ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("list campaign receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]webstorage.Receipt, 0)
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("list campaign receipts: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaign receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes one receipt; deleting a missing receipt is a no-op.
func (s *Store) DeleteReceipt(ctx context.Context, campaignID, receiptID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	campaignID = strings.TrimSpace(campaignID)
	receiptID = strings.TrimSpace(receiptID)
	if campaignID == "" || receiptID == "" {
		return fmt.Errorf("campaign id and receipt id are required")
	}
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM receipts WHERE campaign_id = ? AND receipt_id = ?`,
		campaignID,
		receiptID,
	); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (webstorage.Receipt, error) {
	var receipt webstorage.Receipt
	var amount string
	var issuedAt int64
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(
		&receipt.CampaignID,
		&receipt.ID,
		&receipt.Vendor,
		&receipt.Description,
		&receipt.CategoryID,
		&amount,
		&issuedAt,
		&receipt.DocumentURL,
		&createdAt,
		&updatedAt,
	); err != nil {
		return webstorage.Receipt{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return webstorage.Receipt{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	receipt.Amount = parsed
	receipt.IssuedAt = fromMillis(issuedAt)
	receipt.CreatedAt = fromMillis(createdAt)
	receipt.UpdatedAt = fromMillis(updatedAt)
	return receipt, nil
}

var _ webstorage.ReceiptStore = (*Store)(nil)
