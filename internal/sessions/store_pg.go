package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"intake-backend/internal/shared/util"
)

// PGStore implements Store on Postgres. Only a hash of the session id is stored.
type PGStore struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *PGStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *PGStore) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT logged_in, username, created_at, expires_at
FROM sessions
WHERE id_hash = $1 AND expires_at > $2`

	sess := Session{ID: id}
	err := s.DB.QueryRowContext(ctx, query, util.HashToken(id), s.now()).
		Scan(&sess.LoggedIn, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

func (s *PGStore) Save(ctx context.Context, sess Session) error {
	const query = `
INSERT INTO sessions (id_hash, logged_in, username, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id_hash) DO UPDATE SET
    logged_in = EXCLUDED.logged_in,
    username = EXCLUDED.username,
    expires_at = EXCLUDED.expires_at`

	_, err := s.DB.ExecContext(ctx, query,
		util.HashToken(sess.ID),
		sess.LoggedIn,
		sess.Username,
		sess.CreatedAt,
		sess.ExpiresAt,
	)
	return err
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id_hash = $1`
	_, err := s.DB.ExecContext(ctx, query, util.HashToken(id))
	return err
}

func (s *PGStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`
	res, err := s.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ Store = (*PGStore)(nil)
