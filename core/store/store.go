package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"role-sync/core/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the system of record for identity links.
type Store interface {
	// InitializeSchema creates the links table if needed and verifies its columns.
	InitializeSchema(ctx context.Context) error
	// UpsertLink links platformID to gameID. Re-linking the identical pair is a
	// no-op; either side being linked elsewhere yields a *ConflictError.
	UpsertLink(ctx context.Context, platformID string, gameID uuid.UUID) (*Link, error)
	// RemoveLinkByPlatform deletes the link for a platform account, if any.
	RemoveLinkByPlatform(ctx context.Context, platformID string) error
	// RemoveLinkByGame deletes the link for a game account, if any.
	RemoveLinkByGame(ctx context.Context, gameID uuid.UUID) error
	// FindByPlatform returns nil without error when no link exists.
	FindByPlatform(ctx context.Context, platformID string) (*Link, error)
	// FindByGame returns nil without error when no link exists.
	FindByGame(ctx context.Context, gameID uuid.UUID) (*Link, error)
	// ListAll lazily walks every link in platform id order. The sequence can
	// be ranged over more than once; each pass starts from the beginning.
	ListAll(ctx context.Context) iter.Seq2[*Link, error]
	// Acquire borrows a connection from the backing engine.
	Acquire(ctx context.Context) (*Conn, error)
	// Release hands a connection back.
	Release(conn *Conn)
	// Close closes the underlying database.
	Close() error
}

// SQLStore implements Store over any gorm dialect.
type SQLStore struct {
	db       *gorm.DB
	engine   engine
	pageSize int
	now      func() time.Time
}

// Option configures a SQLStore.
type Option func(*SQLStore)

// WithPageSize sets how many rows ListAll fetches per round-trip.
func WithPageSize(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides the time source used for LinkedAt.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		s.now = now
	}
}

// New wraps an open database. The engine is chosen from the dialect:
// sqlite is treated as the embedded single-owner engine, everything else
// as a networked pool.
func New(db *gorm.DB, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:       db,
		pageSize: 500,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if db.Dialector.Name() == database.DriverSQLite {
		s.engine = newEmbeddedEngine()
	} else {
		s.engine = newNetworkedEngine()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects using cfg and returns a ready store.
func Open(cfg database.Config, opts ...Option) (*SQLStore, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return New(db, opts...), nil
}

// Engine returns "embedded" or "networked".
func (s *SQLStore) Engine() string {
	return s.engine.name()
}

func (s *SQLStore) Acquire(ctx context.Context) (*Conn, error) {
	conn, err := s.engine.acquire(ctx, s.db)
	if err != nil {
		return nil, transient("acquire", err)
	}
	return conn, nil
}

func (s *SQLStore) Release(conn *Conn) {
	if conn != nil && conn.release != nil {
		conn.release()
		conn.release = nil
	}
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) InitializeSchema(ctx context.Context) error {
	conn, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release(conn)

	if err := conn.DB.AutoMigrate(&linkRow{}); err != nil {
		return transient("initialize schema", err)
	}

	missing, err := database.MissingColumns(conn.DB, linkRow{}.TableName(), linkColumns)
	if err != nil {
		return transient("inspect schema", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("links table is missing columns %v", missing)
	}
	return nil
}

func (s *SQLStore) UpsertLink(ctx context.Context, platformID string, gameID uuid.UUID) (*Link, error) {
	if platformID == "" || gameID == uuid.Nil {
		return nil, fmt.Errorf("%w: platform id %q, game id %s", ErrInvalidLink, platformID, gameID)
	}

	conn, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Release(conn)

	var out *Link
	err = conn.DB.Transaction(func(tx *gorm.DB) error {
		existing, err := checkPair(tx, platformID, gameID)
		if err != nil || existing != nil {
			out = existing
			return err
		}

		row := linkRow{
			PlatformID: platformID,
			GameID:     gameID.String(),
			LinkedAt:   s.now(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		out, err = row.toLink()
		return err
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race against a concurrent writer; classify against what won.
		existing, cerr := checkPair(conn.DB, platformID, gameID)
		if cerr != nil {
			return nil, transient("upsert link", cerr)
		}
		if existing != nil {
			return existing, nil
		}
		return nil, transient("upsert link", err)
	}
	if err != nil {
		return nil, transient("upsert link", err)
	}
	return out, nil
}

// checkPair returns the stored link when the exact pair already exists,
// a *ConflictError when either side is linked elsewhere, or nil, nil.
func checkPair(tx *gorm.DB, platformID string, gameID uuid.UUID) (*Link, error) {
	byPlatform, err := findRow(tx, "platform_id = ?", platformID)
	if err != nil {
		return nil, err
	}
	if byPlatform != nil {
		if byPlatform.GameID == gameID {
			return byPlatform, nil
		}
		return nil, &ConflictError{PlatformID: platformID, GameID: gameID, ExistingGameID: byPlatform.GameID}
	}

	byGame, err := findRow(tx, "game_id = ?", gameID.String())
	if err != nil {
		return nil, err
	}
	if byGame != nil {
		return nil, &ConflictError{PlatformID: platformID, GameID: gameID, ExistingPlatformID: byGame.PlatformID}
	}
	return nil, nil
}

func findRow(tx *gorm.DB, query string, arg any) (*Link, error) {
	var row linkRow
	err := tx.Where(query, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toLink()
}

func (s *SQLStore) RemoveLinkByPlatform(ctx context.Context, platformID string) error {
	return s.remove(ctx, "platform_id = ?", platformID)
}

func (s *SQLStore) RemoveLinkByGame(ctx context.Context, gameID uuid.UUID) error {
	return s.remove(ctx, "game_id = ?", gameID.String())
}

func (s *SQLStore) remove(ctx context.Context, query string, arg any) error {
	conn, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release(conn)

	if err := conn.DB.Where(query, arg).Delete(&linkRow{}).Error; err != nil {
		return transient("remove link", err)
	}
	return nil
}

func (s *SQLStore) FindByPlatform(ctx context.Context, platformID string) (*Link, error) {
	return s.find(ctx, "platform_id = ?", platformID)
}

func (s *SQLStore) FindByGame(ctx context.Context, gameID uuid.UUID) (*Link, error) {
	return s.find(ctx, "game_id = ?", gameID.String())
}

func (s *SQLStore) find(ctx context.Context, query string, arg any) (*Link, error) {
	conn, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Release(conn)

	link, err := findRow(conn.DB, query, arg)
	if err != nil {
		return nil, transient("find link", err)
	}
	return link, nil
}

func (s *SQLStore) ListAll(ctx context.Context) iter.Seq2[*Link, error] {
	return func(yield func(*Link, error) bool) {
		after := ""
		for {
			rows, err := s.page(ctx, after)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, row := range rows {
				link, err := row.toLink()
				if err != nil {
					err = fmt.Errorf("link for %s has malformed game id %q: %w", row.PlatformID, row.GameID, err)
				}
				if !yield(link, err) {
					return
				}
			}

			if len(rows) < s.pageSize {
				return
			}
			after = rows[len(rows)-1].PlatformID
		}
	}
}

// page fetches one keyset page. The connection is released before the
// caller sees any row, so consumers may call back into the store.
func (s *SQLStore) page(ctx context.Context, after string) ([]linkRow, error) {
	conn, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Release(conn)

	var rows []linkRow
	err = conn.DB.
		Where("platform_id > ?", after).
		Order("platform_id").
		Limit(s.pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, transient("list links", err)
	}
	return rows, nil
}
