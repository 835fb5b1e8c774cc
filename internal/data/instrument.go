package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const instrumentStartKey = "proofline:stmt_start"

// instrumentation is a GORM plugin that times every SQL statement and
// forwards the result to a QueryObserver. Record-not-found counts as a
// completed statement, not an error, matching the ORM's own convention.
type instrumentation struct {
	observer QueryObserver
}

func newInstrumentation(obs QueryObserver) *instrumentation {
	if obs == nil {
		obs = NopObserver{}
	}
	return &instrumentation{observer: obs}
}

func (p *instrumentation) Name() string {
	return "proofline:instrumentation"
}

// Initialize hooks a timer around each statement kind the ORM executes.
func (p *instrumentation) Initialize(db *gorm.DB) error {
	var firstErr error
	register := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	cb := db.Callback()
	register(cb.Create().Before("gorm:create").Register("proofline:before_create", p.start))
	register(cb.Create().After("gorm:create").Register("proofline:after_create", p.finish("create")))
	register(cb.Query().Before("gorm:query").Register("proofline:before_query", p.start))
	register(cb.Query().After("gorm:query").Register("proofline:after_query", p.finish("query")))
	register(cb.Update().Before("gorm:update").Register("proofline:before_update", p.start))
	register(cb.Update().After("gorm:update").Register("proofline:after_update", p.finish("update")))
	register(cb.Delete().Before("gorm:delete").Register("proofline:before_delete", p.start))
	register(cb.Delete().After("gorm:delete").Register("proofline:after_delete", p.finish("delete")))
	register(cb.Row().Before("gorm:row").Register("proofline:before_row", p.start))
	register(cb.Row().After("gorm:row").Register("proofline:after_row", p.finish("row")))
	register(cb.Raw().Before("gorm:raw").Register("proofline:before_raw", p.start))
	register(cb.Raw().After("gorm:raw").Register("proofline:after_raw", p.finish("raw")))
	return firstErr
}

func (p *instrumentation) start(tx *gorm.DB) {
	tx.InstanceSet(instrumentStartKey, time.Now())
}

func (p *instrumentation) finish(kind string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(instrumentStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		succeeded := tx.Error == nil || errors.Is(tx.Error, gorm.ErrRecordNotFound)
		p.observer.OnQueryCompleted(kind, time.Since(start), succeeded)
		if !succeeded {
			p.observer.OnError(tx.Error.Error())
		}
	}
}
