package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/njimyasmine/user-management-api/auth/hasher"
	"github.com/njimyasmine/user-management-api/auth/storage"
	"github.com/njimyasmine/user-management-api/auth/token"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/njimyasmine/user-management-api/internal/normalize"
	"github.com/njimyasmine/user-management-api/internal/pagination"
	"github.com/sirupsen/logrus"
)

const bearerPrefix = "Bearer "

// Notifier receives an event after every committed change.
type Notifier interface {
	Notify(ctx context.Context, event users.Event)
}

type Service struct {
	storage  storage.UserStorage
	hasher   *hasher.Hasher
	tokens   *token.Issuer
	notifier Notifier
	log      *logrus.Entry
	now      func() time.Time

	// compared against on unknown emails so login timing does not leak
	// which accounts exist
	dummyHash string
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Update holds the fields of an update request. Empty strings leave the
// stored value unchanged.
type Update struct {
	Name     string
	Email    string
	Password string
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      users.User
}

func New(ctx context.Context, cfg Config, storage storage.UserStorage, l *logrus.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		storage: storage,
		log:     l.WithField("from", "account-service"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	cost := cfg.HashCost
	if cost == 0 {
		cost = hasher.DefaultCost
	}
	h, err := hasher.New(cost, cfg.PasswordPepper)
	if err != nil {
		return nil, err
	}
	s.hasher = h

	tokens, err := token.New(cfg.Secret, cfg.TokenTTL, token.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	s.tokens = tokens

	s.dummyHash, err = h.Hash("not a real password")
	if err != nil {
		return nil, err
	}

	if err := s.createRoot(ctx, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) createRoot(ctx context.Context, cfg Config) error {
	if cfg.RootEmail == "" || cfg.RootPassword == "" {
		return nil
	}
	_, err := s.storage.GetUserByEmail(ctx, cfg.RootEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	name := cfg.RootName
	if name == "" {
		name = "root"
	}
	u, err := s.CreateUser(ctx, name, cfg.RootEmail, cfg.RootPassword)
	if err != nil {
		return fmt.Errorf("create root user: %w", err)
	}
	s.log.WithField("id", u.ID).Info("root user created")
	return nil
}

func (s *Service) CreateUser(ctx context.Context, name, email, password string) (users.User, error) {
	name = normalize.Name(name)
	email = normalize.Email(email)
	if err := validateCreate(name, email, password); err != nil {
		return users.User{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return users.User{}, err
	}
	u, err := s.storage.CreateUser(ctx, users.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return users.User{}, s.storageError(err)
	}
	s.log.WithField("id", u.ID).Debug("user created")
	s.notify(ctx, users.UserCreated, u)
	return u.Public(), nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalize.Email(email)
	if err := validateLogin(email, password); err != nil {
		return Session{}, err
	}
	u, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return Session{}, s.storageError(err)
		}
		s.hasher.Verify(password, s.dummyHash)
		return Session{}, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	issuedAt := s.now()
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     tok,
		ExpiresAt: issuedAt.Add(s.tokens.TTL()),
		User:      u.Public(),
	}, nil
}

func (s *Service) ListUsers(ctx context.Context, req pagination.Request) (pagination.Page[users.User], error) {
	list, err := s.storage.ListUsers(ctx)
	if err != nil {
		return pagination.Page[users.User]{}, s.storageError(err)
	}
	page := pagination.Slice(list, req)
	for i := range page.Items {
		page.Items[i] = page.Items[i].Public()
	}
	return page, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (users.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return users.User{}, ErrNotFound
	}
	u, err := s.storage.GetUser(ctx, uid)
	if err != nil {
		return users.User{}, s.storageError(err)
	}
	return u.Public(), nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, upd Update) (users.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return users.User{}, ErrNotFound
	}
	current, err := s.storage.GetUser(ctx, uid)
	if err != nil {
		return users.User{}, s.storageError(err)
	}

	var patch users.Patch
	if name := normalize.Name(upd.Name); name != "" {
		patch.Name = &name
	}
	if upd.Email != "" {
		email := normalize.Email(upd.Email)
		if email == "" {
			return users.User{}, invalid("email", "invalid email format")
		}
		if err := validateEmail(email); err != nil {
			return users.User{}, err
		}
		patch.Email = &email
	}
	if upd.Password != "" {
		hash, err := s.hasher.Hash(upd.Password)
		if err != nil {
			return users.User{}, err
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return current.Public(), nil
	}

	u, err := s.storage.UpdateUser(ctx, uid, patch)
	if err != nil {
		return users.User{}, s.storageError(err)
	}
	s.log.WithField("id", u.ID).Debug("user updated")
	s.notify(ctx, users.UserUpdated, u)
	return u.Public(), nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	u, err := s.storage.GetUser(ctx, uid)
	if err != nil {
		return s.storageError(err)
	}
	if err := s.storage.DeleteUser(ctx, uid); err != nil {
		return s.storageError(err)
	}
	s.log.WithField("id", uid).Debug("user deleted")
	s.notify(ctx, users.UserDeleted, u)
	return nil
}

// Authenticate checks an Authorization header value and returns the id the
// token was issued to.
func (s *Service) Authenticate(header string) (uuid.UUID, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return uuid.Nil, ErrNotAuthorized
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return uuid.Nil, ErrNotAuthorized
	}
	id, err := s.tokens.Verify(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return id, nil
}

func (s *Service) storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrEmailTaken):
		return ErrConflict
	default:
		s.log.WithError(err).Error("storage failure")
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}

func (s *Service) notify(ctx context.Context, t users.EventType, u users.User) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, users.NewEvent(t, u, s.now()))
}
