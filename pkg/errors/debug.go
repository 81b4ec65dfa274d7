package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the non-production error body: the wrapped chain plus the
// database diagnostics when a driver error sits underneath.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	DB         *DBError `json:"db,omitempty"`
}

// DBError is the driver-neutral subset of a Postgres error.
type DBError struct {
	SQLState   string `json:"sqlstate"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	out := ErrorDump{TopMessage: err.Error(), DB: dbErrorOf(err)}
	if typed := As(err); typed != nil {
		out.Code = typed.Code()
	}
	for link := err; link != nil; link = errors.Unwrap(link) {
		out.Chain = append(out.Chain, fmt.Sprintf("%T: %v", link, link))
	}
	return out
}

// dbErrorOf understands both pgx (gorm's postgres driver) and lib/pq (goose).
func dbErrorOf(err error) *DBError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &DBError{
			SQLState:   pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Table:      pgErr.TableName,
			Column:     pgErr.ColumnName,
			Detail:     pgErr.Detail,
			Message:    pgErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DBError{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
