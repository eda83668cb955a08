// Package repository implements PostgreSQL and Redis persistence with sqlx and go-redis.
package repository

import "github.com/jmoiron/sqlx"

func pick(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}
