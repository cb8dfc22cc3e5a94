package etwinstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwin"
	"etwin-backend/lib/hammerfest"
	"etwin-backend/lib/timezone"
)

// SqliteHammerfestStore archives hammerfest account projections in the
// shared archive database.
type SqliteHammerfestStore struct {
	db *sql.DB
}

var _ hammerfest.Store = (*SqliteHammerfestStore)(nil)

func NewSqliteHammerfestStore(database *sql.DB) *SqliteHammerfestStore {
	return &SqliteHammerfestStore{db: database}
}

func (s *SqliteHammerfestStore) GetShortUser(ctx context.Context, options *hammerfest.GetUserOptions) (*hammerfest.ShortUser, error) {
	rawUsername, err := usernameAtSql(ctx, s.db, "hammerfest_user", options.Server.String(), options.Id.String(), options.Time)
	if err != nil || rawUsername == nil {
		return nil, err
	}

	username, err := hammerfest.ParseUsername(*rawUsername)
	if err != nil {
		return nil, err
	}
	return &hammerfest.ShortUser{
		Server:   options.Server,
		Id:       options.Id,
		Username: username,
	}, nil
}

func (s *SqliteHammerfestStore) TouchShortUser(ctx context.Context, user *hammerfest.ShortUser) (*hammerfest.ShortUser, error) {
	err := observeUsernameSql(ctx, s.db, "hammerfest_user", user.Server.String(), user.Id.String(), user.Username.String())
	if err != nil {
		return nil, err
	}
	stored := *user
	return &stored, nil
}

// usernameAtSql projects an account's observation history at an
// instant; nil means now. nil username means the account had not been
// observed yet at that instant.
func usernameAtSql(ctx context.Context, db *sql.DB, table, server, id string, at *time.Time) (*string, error) {
	t := timezone.Now()
	if at != nil {
		t = *at
	}

	row := db.QueryRowContext(
		ctx,
		`SELECT username FROM `+table+`
		 WHERE server = ? AND id = ? AND archived_at <= ?
		 ORDER BY archived_at DESC, rowid DESC LIMIT 1`,
		server, id, t.Unix(),
	)

	var username string
	err := row.Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &username, nil
}

// observeUsernameSql records a sighting. Observations are append only;
// an unchanged name is not a new row.
func observeUsernameSql(ctx context.Context, db *sql.DB, table, server, id, username string) error {
	var latest string
	err := db.QueryRowContext(
		ctx,
		`SELECT username FROM `+table+`
		 WHERE server = ? AND id = ?
		 ORDER BY archived_at DESC, rowid DESC LIMIT 1`,
		server, id,
	).Scan(&latest)
	switch {
	case err == nil:
		if latest == username {
			return nil
		}
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = db.ExecContext(
		ctx,
		`INSERT INTO `+table+` (server, id, username, archived_at) VALUES (?, ?, ?, ?)`,
		server, id, username, timezone.Now().Unix(),
	)
	return err
}

// SqliteDinoparcStore archives dinoparc account projections.
type SqliteDinoparcStore struct {
	db *sql.DB
}

var _ dinoparc.Store = (*SqliteDinoparcStore)(nil)

func NewSqliteDinoparcStore(database *sql.DB) *SqliteDinoparcStore {
	return &SqliteDinoparcStore{db: database}
}

func (s *SqliteDinoparcStore) GetShortUser(ctx context.Context, options *dinoparc.GetUserOptions) (*dinoparc.ShortUser, error) {
	rawUsername, err := usernameAtSql(ctx, s.db, "dinoparc_user", options.Server.String(), options.Id.String(), options.Time)
	if err != nil || rawUsername == nil {
		return nil, err
	}

	username, err := dinoparc.ParseUsername(*rawUsername)
	if err != nil {
		return nil, err
	}
	return &dinoparc.ShortUser{
		Server:   options.Server,
		Id:       options.Id,
		Username: username,
	}, nil
}

func (s *SqliteDinoparcStore) TouchShortUser(ctx context.Context, user *dinoparc.ShortUser) (*dinoparc.ShortUser, error) {
	err := observeUsernameSql(ctx, s.db, "dinoparc_user", user.Server.String(), user.Id.String(), user.Username.String())
	if err != nil {
		return nil, err
	}
	stored := *user
	return &stored, nil
}

// SqliteEtwinStore archives first-party users and account links.
type SqliteEtwinStore struct {
	db *sql.DB
}

var (
	_ etwin.UserStore = (*SqliteEtwinStore)(nil)
	_ etwin.LinkStore = (*SqliteEtwinStore)(nil)
)

func NewSqliteEtwinStore(database *sql.DB) *SqliteEtwinStore {
	return &SqliteEtwinStore{db: database}
}

func (s *SqliteEtwinStore) CreateUser(ctx context.Context, displayName string) (*etwin.User, error) {
	user := etwin.User{
		Id:          etwin.NewUserId(),
		DisplayName: displayName,
		CTime:       timezone.Now(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO etwin_user (id, display_name, ctime, is_deleted) VALUES (?, ?, ?, 0)`,
		user.Id.String(), user.DisplayName, user.CTime.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SqliteEtwinStore) GetUser(ctx context.Context, id etwin.UserId) (*etwin.User, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT display_name, ctime, is_deleted FROM etwin_user WHERE id = ?`,
		id.String(),
	)

	var displayName string
	var ctime int64
	var isDeleted bool
	err := row.Scan(&displayName, &ctime, &isDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, etwin.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &etwin.User{
		Id:          id,
		DisplayName: displayName,
		CTime:       time.Unix(ctime, 0).In(timezone.Location),
		IsDeleted:   isDeleted,
	}, nil
}

func (s *SqliteEtwinStore) GetShortUser(ctx context.Context, id etwin.UserId, at *time.Time) (*etwin.ShortUser, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if at != nil && user.CTime.After(*at) {
		return nil, etwin.ErrUserNotFound
	}
	short := user.Short()
	return &short, nil
}

// remoteRef abstracts the two link tables: both key their remote
// account by (server, id) strings.
type remoteRef[R any] struct {
	table string
	parts func(R) (server string, id string)
}

var hammerfestRef = remoteRef[hammerfest.UserIdRef]{
	table: "hammerfest_link",
	parts: func(ref hammerfest.UserIdRef) (string, string) {
		return ref.Server.String(), ref.Id.String()
	},
}

var dinoparcRef = remoteRef[dinoparc.UserIdRef]{
	table: "dinoparc_link",
	parts: func(ref dinoparc.UserIdRef) (string, string) {
		return ref.Server.String(), ref.Id.String()
	},
}

func getLink[R any](
	ctx context.Context,
	db *sql.DB,
	ref remoteRef[R],
	options *etwin.GetLinkOptions[R],
) (*etwin.VersionedRawLink[R], error) {
	t := timezone.Now()
	if options.Time != nil {
		t = *options.Time
	}
	server, id := ref.parts(options.Remote)

	rows, err := db.QueryContext(
		ctx,
		`SELECT etwin_id, linked_by, linked_at, unlinked_by, unlinked_at
		 FROM `+ref.table+`
		 WHERE server = ? AND user_id = ? AND linked_at <= ?
		 ORDER BY linked_at`,
		server, id, t.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &etwin.VersionedRawLink[R]{Old: []etwin.OldRawLink[R]{}}
	for rows.Next() {
		var etwinId, linkedBy string
		var linkedAt int64
		var unlinkedBy sql.NullString
		var unlinkedAt sql.NullInt64
		if err := rows.Scan(&etwinId, &linkedBy, &linkedAt, &unlinkedBy, &unlinkedAt); err != nil {
			return nil, err
		}

		link := etwin.RawLink[R]{
			Link: etwin.UserDot{
				Time: time.Unix(linkedAt, 0).In(timezone.Location),
				User: etwin.UserId(linkedBy),
			},
			Etwin:  etwin.UserId(etwinId),
			Remote: options.Remote,
		}
		if unlinkedAt.Valid && unlinkedAt.Int64 <= t.Unix() {
			out.Old = append(out.Old, etwin.OldRawLink[R]{
				RawLink: link,
				Unlink: etwin.UserDot{
					Time: time.Unix(unlinkedAt.Int64, 0).In(timezone.Location),
					User: etwin.UserId(unlinkedBy.String),
				},
			})
		} else {
			out.Current = &link
		}
	}
	return out, rows.Err()
}

func touchLinkSql[R any](
	ctx context.Context,
	db *sql.DB,
	ref remoteRef[R],
	options *etwin.TouchLinkOptions[R],
) (*etwin.VersionedRawLink[R], error) {
	server, id := ref.parts(options.Remote)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(
		ctx,
		`SELECT etwin_id FROM `+ref.table+` WHERE server = ? AND user_id = ? AND unlinked_at IS NULL`,
		server, id,
	).Scan(&existing)
	switch {
	case err == nil:
		if existing != options.Etwin.String() {
			return nil, etwin.ErrLinkConflict
		}
		// idempotent: the existing link stands. End the tx before
		// re-reading, the pool is capped at one connection.
		if err := tx.Rollback(); err != nil {
			return nil, err
		}
		return getLink(ctx, db, ref, &etwin.GetLinkOptions[R]{Remote: options.Remote})
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	var userCount int
	err = tx.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM etwin_user WHERE id = ?`,
		options.Etwin.String(),
	).Scan(&userCount)
	if err != nil {
		return nil, err
	}
	if userCount == 0 {
		return nil, etwin.ErrBrokenLink
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO `+ref.table+` (server, user_id, etwin_id, linked_by, linked_at)
		 VALUES (?, ?, ?, ?, ?)`,
		server, id, options.Etwin.String(), options.LinkedBy.String(), timezone.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return getLink(ctx, db, ref, &etwin.GetLinkOptions[R]{Remote: options.Remote})
}

func deleteLinkSql[R any](
	ctx context.Context,
	db *sql.DB,
	ref remoteRef[R],
	options *etwin.DeleteLinkOptions[R],
) (*etwin.VersionedRawLink[R], error) {
	server, id := ref.parts(options.Remote)

	res, err := db.ExecContext(
		ctx,
		`UPDATE `+ref.table+` SET unlinked_by = ?, unlinked_at = ?
		 WHERE server = ? AND user_id = ? AND unlinked_at IS NULL`,
		options.UnlinkedBy.String(), timezone.Now().Unix(), server, id,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, etwin.ErrLinkNotFound
	}

	return getLink(ctx, db, ref, &etwin.GetLinkOptions[R]{Remote: options.Remote})
}

func (s *SqliteEtwinStore) GetLinkFromHammerfest(ctx context.Context, options *etwin.GetLinkOptions[hammerfest.UserIdRef]) (*etwin.VersionedRawLink[hammerfest.UserIdRef], error) {
	return getLink(ctx, s.db, hammerfestRef, options)
}

func (s *SqliteEtwinStore) TouchHammerfestLink(ctx context.Context, options *etwin.TouchLinkOptions[hammerfest.UserIdRef]) (*etwin.VersionedRawLink[hammerfest.UserIdRef], error) {
	return touchLinkSql(ctx, s.db, hammerfestRef, options)
}

func (s *SqliteEtwinStore) DeleteHammerfestLink(ctx context.Context, options *etwin.DeleteLinkOptions[hammerfest.UserIdRef]) (*etwin.VersionedRawLink[hammerfest.UserIdRef], error) {
	return deleteLinkSql(ctx, s.db, hammerfestRef, options)
}

func (s *SqliteEtwinStore) GetLinkFromDinoparc(ctx context.Context, options *etwin.GetLinkOptions[dinoparc.UserIdRef]) (*etwin.VersionedRawLink[dinoparc.UserIdRef], error) {
	return getLink(ctx, s.db, dinoparcRef, options)
}

func (s *SqliteEtwinStore) TouchDinoparcLink(ctx context.Context, options *etwin.TouchLinkOptions[dinoparc.UserIdRef]) (*etwin.VersionedRawLink[dinoparc.UserIdRef], error) {
	return touchLinkSql(ctx, s.db, dinoparcRef, options)
}

func (s *SqliteEtwinStore) DeleteDinoparcLink(ctx context.Context, options *etwin.DeleteLinkOptions[dinoparc.UserIdRef]) (*etwin.VersionedRawLink[dinoparc.UserIdRef], error) {
	return deleteLinkSql(ctx, s.db, dinoparcRef, options)
}
