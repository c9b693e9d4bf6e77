package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ordersync/internal/common"
	"github.com/dmitrijs2005/ordersync/internal/dbx"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func decode(doc []byte, status string) (models.Order, error) {
	var o models.Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return models.Order{}, fmt.Errorf("decode order document: %w", err)
	}
	o.Status = models.Status(status)
	return o, nil
}

func (r *PostgresRepository) List(ctx context.Context, deviceScope *string) ([]models.Order, error) {
	query := `SELECT document, status FROM orders ORDER BY created_at DESC, id DESC`
	args := []any{}
	if deviceScope != nil {
		query = `SELECT document, status FROM orders WHERE owner_device_id = $1 ORDER BY created_at DESC, id DESC`
		args = append(args, *deviceScope)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	defer rows.Close()

	result := make([]models.Order, 0)
	for rows.Next() {
		var (
			doc    []byte
			status string
		)
		if err := rows.Scan(&doc, &status); err != nil {
			return nil, err
		}
		o, err := decode(doc, status)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (models.Order, error) {
	var (
		doc    []byte
		status string
	)
	err := r.db.QueryRowContext(ctx, `SELECT document, status FROM orders WHERE id = $1`, id).Scan(&doc, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, common.ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("db error: %w", err)
	}
	return decode(doc, status)
}

// Create inserts the order. An existing id is left untouched and reported
// as common.ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, order models.Order) error {
	doc, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order document: %w", err)
	}

	query := `
		INSERT INTO orders (id, owner_device_id, customer_email, status, created_at, document)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		order.ID, nullable(order.OwnerDeviceID), nullable(models.NormalizeEmail(order.Contact.Email)),
		string(order.Status), order.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrDuplicate
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.Status) (models.Order, error) {
	var (
		doc     []byte
		current string
	)
	query := `UPDATE orders SET status = $2 WHERE id = $1 RETURNING document, status`
	err := r.db.QueryRowContext(ctx, query, id, string(status)).Scan(&doc, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, common.ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("db error: %w", err)
	}
	return decode(doc, current)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
