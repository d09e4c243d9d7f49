// Package dispatch turns configuration into a concrete store backend and delivery transport.
package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mickamy/maildrain"
	"github.com/mickamy/maildrain/deliverers"
	"github.com/mickamy/maildrain/internal/config"
	awssqs "github.com/mickamy/maildrain/internal/lib/aws/sqs"
	"github.com/mickamy/maildrain/stores"
)

// ErrUnknownTransport is returned for a DELIVERY_TRANSPORT with no deliverer.
var ErrUnknownTransport = errors.New("dispatch: unknown delivery transport")

const pingTimeout = 5 * time.Second

// Backend is an opened queue database and the store bound to it.
type Backend struct {
	Store   maildrain.Store
	DB      *sql.DB
	Dialect stores.Dialect
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	return b.DB.Close()
}

// driverName maps a dialect to its registered database/sql driver.
func driverName(d stores.Dialect) (string, error) {
	switch d {
	case stores.DialectPostgres:
		return "pgx", nil
	case stores.DialectMySQL:
		return "mysql", nil
	case stores.DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("%w: %q", stores.ErrUnsupportedDialect, d)
	}
}

// NewStore binds db to the store implementation for dialect.
func NewStore(db *sql.DB, dialect stores.Dialect, table string) (maildrain.Store, error) {
	switch dialect {
	case stores.DialectPostgres:
		return stores.NewPostgresStore(db, stores.WithPostgresTable(table)), nil
	case stores.DialectMySQL:
		return stores.NewMySQLStore(db, stores.WithMySQLTable(table)), nil
	case stores.DialectSQLite:
		return stores.NewSQLiteStore(db, stores.WithSQLiteTable(table)), nil
	default:
		return nil, fmt.Errorf("%w: %q", stores.ErrUnsupportedDialect, dialect)
	}
}

// OpenStore opens and pings the queue database named by cfg and returns its store.
func OpenStore(ctx context.Context, cfg config.Config) (*Backend, error) {
	dialect, err := cfg.StoreDialect()
	if err != nil {
		return nil, err
	}
	driver, err := driverName(dialect)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dialect == stores.DialectSQLite {
		if dsn, err = stores.SQLiteDSN(dsn); err != nil {
			return nil, errors.Join(config.ErrInvalidConfig, err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == stores.DialectSQLite {
		// single writer
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	store, err := NewStore(db, dialect, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Backend{Store: store, DB: db, Dialect: dialect}, nil
}

// NewDeliverer builds the transport selected by cfg.Transport.
func NewDeliverer(ctx context.Context, cfg config.Config) (maildrain.Deliverer, error) {
	switch cfg.Transport {
	case config.TransportPostmark:
		d, err := deliverers.NewPostmark(deliverers.PostmarkConfig{
			ServerToken:   cfg.PostmarkServerToken,
			AccountToken:  cfg.PostmarkAccountToken,
			MessageStream: cfg.PostmarkMessageStream,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.TransportWebhook:
		d, err := deliverers.NewWebhook(cfg.WebhookURL, &http.Client{Timeout: cfg.DeliveryTimeout})
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.TransportSQS:
		client, err := awssqs.New(ctx, awssqs.Options{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.SQSEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create sqs client: %w", err)
		}
		d, err := deliverers.NewSQS(client, cfg.SQSQueueURL)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}
