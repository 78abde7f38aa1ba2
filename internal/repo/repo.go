package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
)

// Repo is the sqlite-backed activity store. Reads and writes that belong to
// one user-month are serialized through Locks.
type Repo struct {
	DB    *sql.DB
	Locks *MonthLocks
}

var ErrNotFound = errors.New("not found")

// New returns a Repo with its own lock table.
func New(db *sql.DB) Repo {
	return Repo{DB: db, Locks: NewMonthLocks()}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r Repo) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.DB
}

// LockUserMonth blocks until the caller owns the user-month containing date
// (YYYY-MM-DD). The returned func releases it.
func (r Repo) LockUserMonth(userKey, date string) func() {
	locks := r.Locks
	if locks == nil {
		locks = defaultLocks
	}
	month := date
	if len(month) >= 7 {
		month = month[:7]
	}
	return locks.Lock(userKey + "|" + month)
}

const activityColumns = `id,user_key,date,start_time,end_time,activity_type,COALESCE(custom_type,''),COALESCE(notes,''),created_at,updated_at`

func scanActivity(scan func(dest ...any) error) (domain.Activity, error) {
	var a domain.Activity
	err := scan(&a.ID, &a.UserKey, &a.Date, &a.StartTime, &a.EndTime, &a.ActivityType, &a.CustomType, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r Repo) InsertActivity(ctx context.Context, tx *sql.Tx, a domain.Activity) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO activities(id,user_key,date,start_time,end_time,activity_type,custom_type,notes,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.UserKey, a.Date, a.StartTime, a.EndTime, a.ActivityType, nullable(a.CustomType), nullable(a.Notes), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// UpdateActivity rewrites the mutable fields of an activity. Date and owner
// are part of the key and never change.
func (r Repo) UpdateActivity(ctx context.Context, tx *sql.Tx, a domain.Activity) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE activities SET start_time=?,end_time=?,activity_type=?,custom_type=?,notes=?,updated_at=? WHERE id=? AND user_key=? AND date=?`,
		a.StartTime, a.EndTime, a.ActivityType, nullable(a.CustomType), nullable(a.Notes), a.UpdatedAt, a.ID, a.UserKey, a.Date)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteActivity reports whether a row was removed.
func (r Repo) DeleteActivity(ctx context.Context, tx *sql.Tx, userKey, date, id string) (bool, error) {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM activities WHERE id=? AND user_key=? AND date=?`, id, userKey, date)
	if err != nil {
		return false, fmt.Errorf("delete activity: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r Repo) GetActivity(ctx context.Context, tx *sql.Tx, userKey, date, id string) (domain.Activity, error) {
	row := r.q(tx).QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id=? AND user_key=? AND date=?`, id, userKey, date)
	a, err := scanActivity(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Activity{}, ErrNotFound
	}
	return a, err
}

// ListDayActivities returns one user-day ordered by start time.
func (r Repo) ListDayActivities(ctx context.Context, tx *sql.Tx, userKey, date string) ([]domain.Activity, error) {
	return r.listActivities(ctx, tx, `WHERE user_key=? AND date=?`, userKey, date)
}

// ListActivitiesInRange returns activities dated within [from, to], both
// inclusive, ordered by date then start time.
func (r Repo) ListActivitiesInRange(ctx context.Context, userKey, from, to string) ([]domain.Activity, error) {
	return r.listActivities(ctx, nil, `WHERE user_key=? AND date>=? AND date<=?`, userKey, from, to)
}

// ListActivitiesOnDate returns every user's activities for one date.
func (r Repo) ListActivitiesOnDate(ctx context.Context, date string) ([]domain.Activity, error) {
	return r.listActivities(ctx, nil, `WHERE date=?`, date)
}

func (r Repo) listActivities(ctx context.Context, tx *sql.Tx, where string, args ...any) ([]domain.Activity, error) {
	rows, err := r.q(tx).QueryContext(ctx, `SELECT `+activityColumns+` FROM activities `+where+` ORDER BY date ASC, start_time ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
