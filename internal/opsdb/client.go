// Package opsdb is the read-only operational-database client: it backs
// orders.Source, querying the orders/batches views and the batch-parameter
// stored procedure the original's database.py described as
// `database_config`. It shares its SQL Server driver and reconnect-backoff
// helper with internal/audit but never shares a *sql.DB handle with it —
// these are genuinely different databases.
package opsdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/ichar/orderlogd/internal/audit"
	"github.com/ichar/orderlogd/internal/logging"
	"github.com/ichar/orderlogd/internal/orders"
)

// Endpoint describes how to reach the operational database.
type Endpoint struct {
	Server   string
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

// Client implements orders.Source against the operational database.
type Client struct {
	ep     Endpoint
	log    *logging.Logger
	backoff audit.Backoff

	db *sql.DB
}

// New constructs a Client; the connection is opened lazily on first use.
func New(ep Endpoint, log *logging.Logger) *Client {
	return &Client{ep: ep, log: log, backoff: audit.Backoff{Attempts: 3, Wait: 3 * time.Second}}
}

func (c *Client) connect(ctx context.Context) (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	dsn := fmt.Sprintf("server=%s;user id=%s;password=%s;database=%s;connection timeout=%d",
		c.ep.Server, c.ep.User, c.ep.Password, c.ep.Database, int(c.ep.Timeout.Seconds()))

	var db *sql.DB
	err := c.backoff.Run(ctx, func() error {
		var oerr error
		db, oerr = sql.Open("sqlserver", dsn)
		if oerr != nil {
			return oerr
		}
		return db.PingContext(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("connect operational db: %w", err)
	}
	c.db = db
	return db, nil
}

// QueryOrders fetches orders whose status-date falls in [floor, now] per
// The window semantics: finalized selects status-date <= floor AND
// completed; otherwise status-date >= floor OR status-code not in
// completeStatuses, registered on or before now.
func (c *Client) QueryOrders(ctx context.Context, floor, now time.Time, completeStatuses []int, finalized bool) ([]*orders.Order, error) {
	db, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	proc := "sp_orders_active_window"
	if finalized {
		proc = "sp_orders_finalized_window"
	}

	rows, err := db.QueryContext(ctx, proc, sql.Named("floor", floor), sql.Named("now", now))
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []*orders.Order
	for rows.Next() {
		var (
			id         int
			fname      string
			client     string
			statusCode int
			statusDate time.Time
		)
		if err := rows.Scan(&id, &fname, &client, &statusCode, &statusDate); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, &orders.Order{
			ID:         id,
			FName:      fname,
			Client:     client,
			StatusCode: statusCode,
			StatusDate: statusDate,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return out, nil
}

// QueryBatchKeys fetches each batch's TID and work-order number for
// orderID, via the batch-parameter stored procedure.
func (c *Client) QueryBatchKeys(ctx context.Context, orderID int) ([]string, error) {
	db, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "sp_batch_keys_for_order", sql.Named("order_id", orderID))
	if err != nil {
		return nil, fmt.Errorf("query batch keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tid, workOrder string
		if err := rows.Scan(&tid, &workOrder); err != nil {
			return nil, fmt.Errorf("scan batch key row: %w", err)
		}
		if tid != "" {
			out = append(out, tid)
		}
		if workOrder != "" {
			out = append(out, workOrder)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch key rows: %w", err)
	}
	return out, nil
}

// Close releases the underlying connection pool, if one was opened.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
