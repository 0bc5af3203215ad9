package web

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/njimyasmine/user-management-api/auth/service"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/njimyasmine/user-management-api/internal/config"
	"github.com/njimyasmine/user-management-api/internal/pagination"
	"github.com/njimyasmine/user-management-api/internal/web/webpath"
	"github.com/sirupsen/logrus"
)

const loginWindow = time.Minute

// Accounts is the account service as seen by the HTTP layer.
type Accounts interface {
	CreateUser(ctx context.Context, name, email, password string) (users.User, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	ListUsers(ctx context.Context, req pagination.Request) (pagination.Page[users.User], error)
	GetUser(ctx context.Context, id string) (users.User, error)
	UpdateUser(ctx context.Context, id string, upd service.Update) (users.User, error)
	DeleteUser(ctx context.Context, id string) error
	Authenticate(header string) (uuid.UUID, error)
}

type Server struct {
	accounts Accounts
	app      *fiber.App
	cfg      config.Server
	log      *logrus.Entry
}

func New(accounts Accounts, cfg config.Server, l *logrus.Logger) *Server {
	server := Server{
		accounts: accounts,
		cfg:      cfg,
		log:      l.WithField("from", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "user-management-api",
		DisableStartupMessage: true,
		ErrorHandler:          server.errorHandler,
	})
	app.Use(recover.New())
	app.Use(server.requestLogger)
	origins := cfg.CorsOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get(webpath.Health, server.handleHealth)

	app.Post(webpath.Users, server.handleCreateUser)
	app.Get(webpath.Users, server.handleListUsers)
	app.Get(webpath.User, server.handleGetUser)
	app.Put(webpath.User, server.requireToken, server.handleUpdateUser)
	app.Delete(webpath.User, server.requireToken, server.handleDeleteUser)

	login := []fiber.Handler{server.handleLogin}
	if cfg.LoginRateLimit > 0 {
		login = append([]fiber.Handler{limiter.New(limiter.Config{
			Max:        cfg.LoginRateLimit,
			Expiration: loginWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts, try again later")
			},
		})}, login...)
	}
	app.Post(webpath.Login, login...)

	server.log.WithField("routes", webpath.Path()).Debug("routes registered")
	server.app = app
	return &server
}

func (s *Server) Serve() error {
	s.log.WithFields(logrus.Fields{
		"address": s.cfg.Address(),
		"tls":     s.cfg.TLS(),
	}).Info("listening")
	if s.cfg.TLS() {
		return s.app.ListenTLS(s.cfg.Address(), s.cfg.CertFile, s.cfg.KeyFile)
	}
	return s.app.Listen(s.cfg.Address())
}

func (s *Server) Shutdown() error {
	s.log.Info("shutting down")
	return s.app.Shutdown()
}
