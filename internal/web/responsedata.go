package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/njimyasmine/user-management-api/auth/service"
	"github.com/njimyasmine/user-management-api/internal/pagination"
)

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var statusErrors = []struct {
	err    error
	status int
}{
	{service.ErrValidation, fiber.StatusBadRequest},
	{pagination.ErrInvalidPage, fiber.StatusBadRequest},
	{pagination.ErrInvalidLimit, fiber.StatusBadRequest},
	{service.ErrConflict, fiber.StatusConflict},
	{service.ErrNotFound, fiber.StatusNotFound},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{service.ErrNotAuthorized, fiber.StatusUnauthorized},
	{service.ErrForbidden, fiber.StatusForbidden},
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			return se.status
		}
	}
	return fiber.StatusInternalServerError
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	resp := errorResponse{Message: publicMessage(err, status)}
	if status == fiber.StatusBadRequest {
		if errs := unwrap(err); len(errs) > 1 {
			resp.Message = "invalid input"
			for _, e := range errs {
				resp.Errors = append(resp.Errors, e.Error())
			}
		}
	}
	if status == fiber.StatusInternalServerError {
		s.log.WithError(err).WithFields(map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("request failed")
	}
	return c.Status(status).JSON(resp)
}

func publicMessage(err error, status int) string {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Message
	case status == fiber.StatusInternalServerError:
		return "internal server error"
	case errors.Is(err, service.ErrForbidden):
		return service.ErrForbidden.Error()
	default:
		return err.Error()
	}
}

type multierr interface {
	Unwrap() []error
}

func unwrap(err error) []error {
	var merr multierr
	if errors.As(err, &merr) {
		var errs []error
		for _, err := range merr.Unwrap() {
			errs = append(errs, unwrap(err)...)
		}
		return errs
	}
	return []error{err}
}
