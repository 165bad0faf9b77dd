package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

const (
	uniqueViolation      = "23505"
	invalidTextRepresent = "22P02"
)

// isUniqueViolation reports whether err comes from a broken unique constraint, optionally a specific one.
func isUniqueViolation(err error, constraint ...string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != uniqueViolation {
		return false
	}
	return len(constraint) == 0 || pqErr.Constraint == constraint[0]
}

// files is a list of file references stored as a JSONB array.
type files []core.File

func (fs files) Value() (driver.Value, error) {
	if fs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(fs)
}

func (fs *files) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*fs = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("cannot scan %T into files", src)
	}
	return json.Unmarshal(data, (*[]core.File)(fs))
}

// query accumulates the WHERE conditions of a statement, written with `?` bindvars.
type query struct {
	conds []string
	args  []interface{}
}

func (q *query) where(cond string, args ...interface{}) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// search adds a case-insensitive substring match of term on any of the columns. term is matched literally.
func (q *query) search(term string, columns ...string) {
	like := "%" + likeEscaper.Replace(term) + "%"
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = col + " ILIKE ?"
		args[i] = like
	}
	q.where("("+strings.Join(conds, " OR ")+")", args...)
}

func (q query) clause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	parts := make([]string, len(ordering))
	for i, ord := range ordering {
		parts[i] = ord.String()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func limit(page core.Page) string {
	if page.IsUnpaged() {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit, page.Offset())
}

// count returns the number of rows of table matching q.
func count(ctx context.Context, db sqlx.QueryerContext, table string, q query) (int, error) {
	var n int
	stmt := sqlx.Rebind(sqlx.DOLLAR, "SELECT COUNT(*) FROM "+table+q.clause())
	if err := sqlx.GetContext(ctx, db, &n, stmt, q.args...); err != nil {
		return 0, err
	}
	return n, nil
}

// inTx runs fn in a transaction, committed if fn succeeds.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// notFound maps a missing row, or an id Postgres cannot read as a UUID, to notFoundErr.
func notFound(err error, notFoundErr error) error {
	cause := errors.Cause(err)
	if cause == sql.ErrNoRows {
		return notFoundErr
	}
	if pqErr, ok := cause.(*pq.Error); ok && pqErr.Code == invalidTextRepresent {
		return notFoundErr
	}
	return err
}

// validID reports whether id can be looked up in a UUID column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() string {
	return uuid.New().String()
}
