package store

import (
	"context"
	"encoding/json"
	defError "errors"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGateway is the production Gateway: Postgres through GORM for reads and
// inserts, with insert notifications fanned out through a Notifier
// (Redis pub/sub in production).
type GormGateway struct {
	db       *gorm.DB
	notifier Notifier
}

func NewGormGateway(db *gorm.DB, notifier Notifier) *GormGateway {
	return &GormGateway{db: db, notifier: notifier}
}

func (g *GormGateway) Query(ctx context.Context, table string, dest any, opts QueryOptions) error {
	return applyOptions(g.db.WithContext(ctx).Table(table), opts).Find(dest).Error
}

func (g *GormGateway) First(ctx context.Context, table string, dest any, opts QueryOptions) error {
	err := applyOptions(g.db.WithContext(ctx).Table(table), opts).Take(dest).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (g *GormGateway) Insert(ctx context.Context, table string, row any) error {
	if err := g.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return err
	}
	g.publish(table, row)
	return nil
}

func (g *GormGateway) Upsert(ctx context.Context, table string, row any, conflictColumns []string) error {
	columns := make([]clause.Column, 0, len(conflictColumns))
	for _, name := range conflictColumns {
		columns = append(columns, clause.Column{Name: name})
	}

	return g.db.WithContext(ctx).
		Table(table).
		Clauses(clause.OnConflict{Columns: columns, UpdateAll: true}).
		Create(row).Error
}

func (g *GormGateway) Subscribe(table string, onInsert func(payload []byte)) Unsubscribe {
	if g.notifier == nil {
		// Degraded mode without Redis: reads and inserts still work, the
		// live view just stays at its last-known state.
		log.Printf("No notifier configured, subscription for %q is inert", table)
		return func() {}
	}
	return g.notifier.Subscribe(table, onInsert)
}

func (g *GormGateway) publish(table string, row any) {
	if g.notifier == nil {
		return
	}

	payload, err := json.Marshal(row)
	if err != nil {
		log.Printf("Failed to encode %s insert notification: %v", table, err)
		return
	}
	g.notifier.Publish(table, payload)
}

func applyOptions(tx *gorm.DB, opts QueryOptions) *gorm.DB {
	if len(opts.Filters) > 0 {
		tx = tx.Where(map[string]any(opts.Filters))
	}
	if opts.OrderBy != "" {
		order := opts.OrderBy
		if opts.Desc {
			order += " DESC"
		}
		tx = tx.Order(order)
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	return tx
}
