// Package audit is the audit-store client: component F. It wraps
// database/sql + go-mssqldb around four stored-procedure call sites,
// addressed by logical name, each returning at most one (id, statusText)
// row classified into an Outcome.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/ichar/orderlogd/internal/logging"
)

// Endpoint describes how to reach the audit database.
type Endpoint struct {
	Server   string
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

// Client is the audit-store connection, opened lazily and reconnected with
// backoff on failure. healthy is an explicit field the caller can check,
// rather than an implicit "reopen on next call" signal buried in error
// returns.
type Client struct {
	ep      Endpoint
	log     *logging.Logger
	backoff Backoff

	mu      sync.Mutex
	db      *sql.DB
	healthy bool
}

// New constructs a Client.
func New(ep Endpoint, log *logging.Logger) *Client {
	return &Client{ep: ep, log: log, backoff: Backoff{Attempts: 3, Wait: 3 * time.Second}, healthy: true}
}

// Healthy reports whether the last connection attempt succeeded.
func (c *Client) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *Client) connect(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

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
		c.healthy = false
		return nil, fmt.Errorf("connect audit db: %w", err)
	}
	c.db = db
	c.healthy = true
	return db, nil
}

// forceReopen discards the current connection so the next call reconnects
// — used when the audit store returns Null.
func (c *Client) forceReopen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		c.db.Close()
	}
	c.db = nil
}

func (c *Client) callOneRow(ctx context.Context, proc string, args ...interface{}) (Outcome, error) {
	db, err := c.connect(ctx)
	if err != nil {
		return Outcome{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: begin tx: %w", proc, err)
	}

	row := tx.QueryRowContext(ctx, proc, args...)
	var id int
	var statusText string
	scanErr := row.Scan(&id, &statusText)

	if scanErr == sql.ErrNoRows {
		if err := tx.Rollback(); err != nil {
			c.log.Error("audit: rollback after empty %s: %v", proc, err)
		}
		c.forceReopen()
		return classify(false, 0, ""), nil
	}
	if scanErr != nil {
		if err := tx.Rollback(); err != nil {
			c.log.Error("audit: rollback after %s error: %v", proc, err)
		}
		return Outcome{}, fmt.Errorf("%s: scan: %w", proc, scanErr)
	}
	if err := tx.Commit(); err != nil {
		return Outcome{}, fmt.Errorf("%s: commit: %w", proc, err)
	}
	return classify(true, id, statusText), nil
}

// CheckSource resolves the (root, ip, ctype) triple to a stable source id.
func (c *Client) CheckSource(ctx context.Context, root, ip, ctype string) (Outcome, error) {
	return c.callOneRow(ctx, "sp_check_source", sql.Named("root", root), sql.Named("ip", ip), sql.Named("ctype", ctype))
}

// CheckModule resolves (sourceID, name, path) to a stable module id.
func (c *Client) CheckModule(ctx context.Context, sourceID int, name, path string) (Outcome, error) {
	return c.callOneRow(ctx, "sp_check_module", sql.Named("source_id", sourceID), sql.Named("name", name), sql.Named("path", path))
}

// CheckLog resolves (sourceID, moduleID, name) to a stable log id.
func (c *Client) CheckLog(ctx context.Context, sourceID, moduleID int, name string) (Outcome, error) {
	return c.callOneRow(ctx, "sp_check_log", sql.Named("source_id", sourceID), sql.Named("module_id", moduleID), sql.Named("name", name))
}

// RegisterMessageParams carries the full positional argument list spec
// §4.F's registerMessage call site takes.
type RegisterMessageParams struct {
	SourceID   int
	ModuleID   int
	LogID      int
	SourceInfo string
	ModuleInfo string
	LogInfo    string
	OrderID    int
	BatchID    int
	Client     string
	FileName   string
	Code       string
	Count      int
	Message    string
	EventDate  time.Time
	Now        time.Time
}

// RegisterMessage persists one correlated line as an audit-store message
// row, returning its classified Outcome.
func (c *Client) RegisterMessage(ctx context.Context, p RegisterMessageParams) (Outcome, error) {
	return c.callOneRow(ctx, "sp_register_message",
		sql.Named("source_id", p.SourceID),
		sql.Named("module_id", p.ModuleID),
		sql.Named("log_id", p.LogID),
		sql.Named("source_info", p.SourceInfo),
		sql.Named("module_info", p.ModuleInfo),
		sql.Named("log_info", p.LogInfo),
		sql.Named("order_id", p.OrderID),
		sql.Named("batch_id", p.BatchID),
		sql.Named("client", p.Client),
		sql.Named("file_name", p.FileName),
		sql.Named("code", p.Code),
		sql.Named("count", p.Count),
		sql.Named("message", p.Message),
		sql.Named("event_date", p.EventDate),
		sql.Named("now", p.Now),
	)
}

// Close releases the underlying connection pool, if one was opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
