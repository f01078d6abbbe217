package database

import (
	"time"

	"gorm.io/gorm"
)

// QueryRecorder receives per-query latency observations.
type QueryRecorder interface {
	RecordStoreQuery(operation string, duration time.Duration)
}

const startTimeKey = "instrument:start_time"

// Instrument registers gorm callbacks that time every query, create,
// update, delete, row, and raw statement and report the latency to the
// recorder. Call once per gorm handle.
func Instrument(db *gorm.DB, recorder QueryRecorder) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			recorder.RecordStoreQuery(operation, time.Since(start))
		}
	}

	if err := db.Callback().Query().Before("gorm:query").Register("instrument:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("instrument:after_query", after("query")); err != nil {
		return err
	}
	if err := db.Callback().Create().Before("gorm:create").Register("instrument:before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("instrument:after_create", after("create")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("instrument:before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("instrument:after_update", after("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("instrument:before_delete", before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("instrument:after_delete", after("delete")); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("instrument:before_row", before); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("instrument:after_row", after("row")); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("instrument:before_raw", before); err != nil {
		return err
	}
	if err := db.Callback().Raw().After("gorm:raw").Register("instrument:after_raw", after("raw")); err != nil {
		return err
	}
	return nil
}
