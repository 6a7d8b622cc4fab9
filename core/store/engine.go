package store

import (
	"context"
	"database/sql/driver"
	"fmt"

	"gorm.io/gorm"
)

// Conn is a borrowed handle on the backing engine. It must be handed back
// with Store.Release.
type Conn struct {
	// DB is bound to the borrowed connection.
	DB *gorm.DB

	release func()
}

// engine hides how each backend hands out connections.
type engine interface {
	name() string
	acquire(ctx context.Context, db *gorm.DB) (*Conn, error)
}

// embeddedEngine owns a single file. Acquirers are serialized through a
// one-slot semaphore so only one caller touches the file at a time.
type embeddedEngine struct {
	slot chan struct{}
}

func newEmbeddedEngine() *embeddedEngine {
	return &embeddedEngine{slot: make(chan struct{}, 1)}
}

func (e *embeddedEngine) name() string { return "embedded" }

func (e *embeddedEngine) acquire(ctx context.Context, db *gorm.DB) (*Conn, error) {
	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Conn{
		DB:      db.WithContext(ctx),
		release: func() { <-e.slot },
	}, nil
}

// networkedEngine borrows a dedicated connection from the database/sql pool
// and validates it with a round-trip before handing it out.
type networkedEngine struct {
	validationQuery string
}

func newNetworkedEngine() *networkedEngine {
	return &networkedEngine{validationQuery: "SELECT 1"}
}

func (e *networkedEngine) name() string { return "networked" }

func (e *networkedEngine) acquire(ctx context.Context, db *gorm.DB) (*Conn, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlConn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to borrow connection: %w", err)
	}

	var one int
	if err := sqlConn.QueryRowContext(ctx, e.validationQuery).Scan(&one); err != nil {
		// Drop the broken connection instead of returning it to the pool.
		_ = sqlConn.Raw(func(any) error { return driver.ErrBadConn })
		_ = sqlConn.Close()
		return nil, fmt.Errorf("connection failed validation: %w", err)
	}

	session := db.Session(&gorm.Session{NewDB: true, Context: ctx})
	session.Statement.ConnPool = sqlConn

	return &Conn{
		DB:      session,
		release: func() { _ = sqlConn.Close() },
	}, nil
}
