package database

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = apperrors.NotFound("record not found")
	ErrClosed          = apperrors.New(apperrors.KindStorage, "database gateway is closed")
	ErrMissingWhere    = apperrors.New(apperrors.KindInternal, "update requires a where clause")
	ErrNestedCloseOnTx = apperrors.New(apperrors.KindInternal, "cannot close a transaction-scoped gateway")
)

type State int32

const (
	StateReady State = iota
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Query describes a single-table read or update. Model selects the table
// when the destination is a projection struct.
type Query struct {
	Model  any
	Select []string
	Where  string
	Args   []any
	Order  string
	Limit  int
	Offset int
}

// Gateway is the only path from services to the relational store. Every
// call acquires a pooled connection for its duration through gorm and
// reports failures as storage errors; callers never see raw driver errors.
type Gateway struct {
	db     *gorm.DB
	logger *logging.Service
	state  *atomic.Int32
	inTx   bool
}

func NewGateway(db *gorm.DB, logger *logging.Service) *Gateway {
	return &Gateway{
		db:     db,
		logger: logger,
		state:  new(atomic.Int32),
	}
}

func (g *Gateway) State() State {
	return State(g.state.Load())
}

// DB exposes the underlying handle for collaborators that need gorm
// directly, such as the session store.
func (g *Gateway) DB() *gorm.DB {
	return g.db
}

func (g *Gateway) conn(ctx context.Context) (*gorm.DB, error) {
	if g.State() == StateClosed {
		return nil, ErrClosed
	}
	return g.db.WithContext(ctx), nil
}

func (g *Gateway) Insert(ctx context.Context, value any) error {
	db, err := g.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(value).Error; err != nil {
		g.logger.Error("insert failed", zap.Error(err))
		return apperrors.Storage("insert failed", err)
	}
	return nil
}

// QueryOne loads a single row into dest and returns ErrNotFound when no
// row matches.
func (g *Gateway) QueryOne(ctx context.Context, dest any, q Query) error {
	db, err := g.conn(ctx)
	if err != nil {
		return err
	}
	if err := apply(db, q).Take(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		g.logger.Error("query failed", zap.Error(err))
		return apperrors.Storage("query failed", err)
	}
	return nil
}

func (g *Gateway) QueryMany(ctx context.Context, dest any, q Query) error {
	db, err := g.conn(ctx)
	if err != nil {
		return err
	}
	if err := apply(db, q).Find(dest).Error; err != nil {
		g.logger.Error("query failed", zap.Error(err))
		return apperrors.Storage("query failed", err)
	}
	return nil
}

func (g *Gateway) Count(ctx context.Context, q Query) (int64, error) {
	db, err := g.conn(ctx)
	if err != nil {
		return 0, err
	}
	q.Order, q.Limit, q.Offset, q.Select = "", 0, 0, nil

	var total int64
	if err := apply(db, q).Count(&total).Error; err != nil {
		g.logger.Error("count failed", zap.Error(err))
		return 0, apperrors.Storage("count failed", err)
	}
	return total, nil
}

// Update applies values to every row matching q and reports how many rows
// changed. A predicate is mandatory; conditional updates use the affected
// count to detect lost races.
func (g *Gateway) Update(ctx context.Context, values map[string]any, q Query) (int64, error) {
	if q.Where == "" {
		return 0, ErrMissingWhere
	}
	db, err := g.conn(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Model(q.Model).Where(q.Where, q.Args...).Updates(values)
	if result.Error != nil {
		g.logger.Error("update failed", zap.Error(result.Error))
		return 0, apperrors.Storage("update failed", result.Error)
	}
	return result.RowsAffected, nil
}

// RunInTransaction runs fn against a transaction-scoped gateway. Returning
// an error from fn rolls back; errors already classified by fn pass
// through unchanged.
func (g *Gateway) RunInTransaction(ctx context.Context, fn func(tx *Gateway) error) error {
	db, err := g.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return fn(&Gateway{db: tx, logger: g.logger, state: g.state, inTx: true})
	})
	if err == nil {
		return nil
	}
	var classified *apperrors.Error
	if errors.As(err, &classified) {
		return err
	}
	g.logger.Error("transaction failed", zap.Error(err))
	return apperrors.Storage("transaction failed", err)
}

func (g *Gateway) Ping(ctx context.Context) error {
	db, err := g.conn(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return apperrors.Storage("connection pool unavailable", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.Storage("database ping failed", err)
	}
	return nil
}

// Close moves the gateway to the closed state and releases the pool.
// Subsequent calls fail with ErrClosed. Closing twice is a no-op.
func (g *Gateway) Close() error {
	if g.inTx {
		return ErrNestedCloseOnTx
	}
	if !g.state.CompareAndSwap(int32(StateReady), int32(StateClosed)) {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	g.logger.Info("closing database pool")
	return sqlDB.Close()
}

func apply(db *gorm.DB, q Query) *gorm.DB {
	if q.Model != nil {
		db = db.Model(q.Model)
	}
	if len(q.Select) > 0 {
		db = db.Select(q.Select)
	}
	if q.Where != "" {
		db = db.Where(q.Where, q.Args...)
	}
	if q.Order != "" {
		db = db.Order(q.Order)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	return db
}
