package stores

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mickamy/maildrain"
	"github.com/mickamy/maildrain/internal/sqlutil"
)

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// sqlTx implements maildrain.Tx on top of *sql.Tx for every dialect.
type sqlTx struct {
	tx *sql.Tx
	q  queries
}

func begin(ctx context.Context, db *sql.DB, q queries, opts *sql.TxOptions) (maildrain.Tx, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx, q: q}, nil
}

func (t *sqlTx) Claim(ctx context.Context, limit int) ([]maildrain.QueueItem, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := t.tx.QueryContext(ctx, t.q.claim(limit))
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var items []maildrain.QueueItem
	for rows.Next() {
		var (
			item      maildrain.QueueItem
			subject   sql.NullString
			plainBody sql.NullString
			htmlBody  sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Sender, &item.Recipients, &subject, &plainBody, &htmlBody); err != nil {
			return nil, err
		}
		item.Subject = sqlutil.String(subject)
		item.PlainBody = sqlutil.String(plainBody)
		item.HTMLBody = sqlutil.String(htmlBody)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (t *sqlTx) Savepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, t.q.savepoint(name))
	return err
}

func (t *sqlTx) RollbackToSavepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, t.q.rollbackTo(name))
	return err
}

func (t *sqlTx) Delete(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, t.q.delete, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d", ErrNoRowDeleted, id)
	}
	return nil
}

func (t *sqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}

func add(ctx context.Context, exec maildrain.Executor, query string, item maildrain.QueueItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	_, err := exec.ExecContext(ctx, query, item.From(), item.Recipients, item.Subject, item.PlainBody, item.HTMLBody)
	return err
}
