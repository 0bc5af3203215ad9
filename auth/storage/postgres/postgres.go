package postgres

import (
	"context"
	"database/sql"
	"errors"
	"net/url"

	"github.com/go-jet/jet/v2/postgres"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // postgresql driver
	"github.com/njimyasmine/user-management-api/auth/gen/auth/public/model"
	"github.com/njimyasmine/user-management-api/auth/gen/auth/public/table"
	"github.com/njimyasmine/user-management-api/auth/storage"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/njimyasmine/user-management-api/internal/dbx"
	"github.com/njimyasmine/user-management-api/internal/migrate"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type Storage struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ storage.UserStorage = (*Storage)(nil)

// New connects to connString, applies pending migrations and returns the
// storage.
func New(ctx context.Context, l *logrus.Logger, connString string) (*Storage, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if err := migrate.UpPostgres(db); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	s := NewWithDB(l, db)
	s.log.Info("user storage connected")
	return s, nil
}

// NewWithDB wraps an already migrated database.
func NewWithDB(l *logrus.Logger, db *sql.DB) *Storage {
	return &Storage{
		db: db,
		log: l.WithFields(map[string]interface{}{
			"from": "postgres-storage",
		}),
	}
}

func (s *Storage) CreateUser(ctx context.Context, user users.User) (users.User, error) {
	return dbx.InTx(ctx, s.db, func(tx *sql.Tx) (users.User, error) {
		_, err := selectOne(ctx, tx, table.Users.ID.EQ(postgres.String(user.ID.String())), false)
		switch {
		case err == nil:
			return users.User{}, storage.ErrDuplicateID
		case !errors.Is(err, storage.ErrNotFound):
			return users.User{}, err
		}
		_, err = table.Users.
			INSERT(table.Users.MutableColumns).
			MODEL(convertUserToModel(user)).
			ExecContext(ctx, tx)
		if err != nil {
			return users.User{}, mapError(err)
		}
		return user, nil
	})
}

func (s *Storage) ListUsers(ctx context.Context) ([]users.User, error) {
	var dest []model.Users
	err := table.Users.
		SELECT(table.Users.AllColumns).
		FROM(table.Users).
		ORDER_BY(table.Users.Seq.ASC()).
		QueryContext(ctx, s.db, &dest)
	if err != nil && !errors.Is(err, qrm.ErrNoRows) {
		return nil, err
	}
	list := make([]users.User, 0, len(dest))
	for i := range dest {
		u, err := convertModelToUser(dest[i])
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, nil
}

func (s *Storage) GetUser(ctx context.Context, id uuid.UUID) (users.User, error) {
	return selectOne(ctx, s.db, table.Users.ID.EQ(postgres.String(id.String())), false)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return selectOne(ctx, s.db, table.Users.Email.EQ(postgres.String(email)), false)
}

func (s *Storage) UpdateUser(ctx context.Context, id uuid.UUID, patch users.Patch) (users.User, error) {
	return dbx.InTx(ctx, s.db, func(tx *sql.Tx) (users.User, error) {
		where := table.Users.ID.EQ(postgres.String(id.String()))
		current, err := selectOne(ctx, tx, where, true)
		if err != nil {
			return users.User{}, err
		}
		updated := patch.Apply(current)
		_, err = table.Users.
			UPDATE(table.Users.Name, table.Users.Email, table.Users.PasswordHash).
			MODEL(convertUserToModel(updated)).
			WHERE(where).
			ExecContext(ctx, tx)
		if err != nil {
			return users.User{}, mapError(err)
		}
		return updated, nil
	})
}

func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return dbx.InTxSimple(ctx, s.db, func(tx *sql.Tx) error {
		res, err := table.Users.
			DELETE().
			WHERE(table.Users.ID.EQ(postgres.String(id.String()))).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Storage) Close() error {
	s.log.Info("user storage closed")
	return s.db.Close()
}

func selectOne(ctx context.Context, db qrm.Queryable, where postgres.BoolExpression, lock bool) (users.User, error) {
	stmt := table.Users.
		SELECT(table.Users.AllColumns).
		FROM(table.Users).
		WHERE(where)
	if lock {
		stmt = stmt.FOR(postgres.UPDATE())
	}
	var dest model.Users
	err := stmt.QueryContext(ctx, db, &dest)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return users.User{}, storage.ErrNotFound
		}
		return users.User{}, err
	}
	return convertModelToUser(dest)
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.ErrEmailTaken
	}
	return err
}

func convertModelToUser(m model.Users) (users.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return users.User{}, err
	}
	return users.User{
		ID:           id,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}, nil
}

func convertUserToModel(u users.User) model.Users {
	return model.Users{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func NewURLConnectionString(protocol, host, dbName, username, password string) string {
	v := make(url.Values)
	u := url.URL{
		Scheme:   protocol,
		Host:     host,
		Path:     dbName,
		User:     url.UserPassword(username, password),
		RawQuery: v.Encode(),
	}
	return u.String()
}
