package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const callerKey = "caller"

// requireToken rejects requests without a valid bearer token and stores the
// caller id in the request locals.
func (s *Server) requireToken(c *fiber.Ctx) error {
	id, err := s.accounts.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(callerKey, id)
	return c.Next()
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	entry := s.log.WithFields(logrus.Fields{
		"method":  c.Method(),
		"path":    c.Path(),
		"status":  status,
		"latency": time.Since(start).String(),
		"ip":      c.IP(),
	})
	if status >= fiber.StatusInternalServerError {
		entry.Warn("request")
	} else {
		entry.Debug("request")
	}
	return err
}
