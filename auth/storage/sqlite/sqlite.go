package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/njimyasmine/user-management-api/auth/gen/sqlite/model"
	"github.com/njimyasmine/user-management-api/auth/gen/sqlite/table"
	"github.com/njimyasmine/user-management-api/auth/storage"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/njimyasmine/user-management-api/internal/dbx"
	"github.com/njimyasmine/user-management-api/internal/migrate"
	"github.com/sirupsen/logrus"
)

type Storage struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ storage.UserStorage = (*Storage)(nil)

func New(l *logrus.Logger, fileName string) (*Storage, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "sqlite-storage",
		"file": fileName,
	})
	db, err := sql.Open("sqlite3", buildSource(fileName))
	if err != nil {
		return nil, err
	}
	// one connection serializes writers the same way the file store's mutex does
	db.SetMaxOpenConns(1)

	err = migrate.UpSqlite(db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	err = db.Ping()
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	log.Info("user storage connected")
	return &Storage{
		db:  db,
		log: log,
	}, nil
}

func (s *Storage) CreateUser(ctx context.Context, user users.User) (users.User, error) {
	return dbx.InTx(ctx, s.db, func(tx *sql.Tx) (users.User, error) {
		_, err := selectOne(ctx, tx, table.Users.ID.EQ(sqlite.String(user.ID.String())))
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
	return selectOne(ctx, s.db, table.Users.ID.EQ(sqlite.String(id.String())))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return selectOne(ctx, s.db, table.Users.Email.EQ(sqlite.String(email)))
}

func (s *Storage) UpdateUser(ctx context.Context, id uuid.UUID, patch users.Patch) (users.User, error) {
	return dbx.InTx(ctx, s.db, func(tx *sql.Tx) (users.User, error) {
		where := table.Users.ID.EQ(sqlite.String(id.String()))
		current, err := selectOne(ctx, tx, where)
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
			WHERE(table.Users.ID.EQ(sqlite.String(id.String()))).
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

func selectOne(ctx context.Context, db qrm.Queryable, where sqlite.BoolExpression) (users.User, error) {
	var dest model.Users
	err := table.Users.
		SELECT(table.Users.AllColumns).
		FROM(table.Users).
		WHERE(where).
		QueryContext(ctx, db, &dest)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return users.User{}, storage.ErrNotFound
		}
		return users.User{}, err
	}
	return convertModelToUser(dest)
}

func mapError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
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

func buildSource(fileName string) string {
	return "file:" + fileName + "?cache=shared"
}
