package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/njimyasmine/user-management-api/auth/service"
	"github.com/njimyasmine/user-management-api/internal/pagination"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := s.accounts.CreateUser(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newUserResponse(u))
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	args := c.Context().QueryArgs()
	req, err := pagination.Parse(func(key string) (string, bool) {
		if !args.Has(key) {
			return "", false
		}
		return string(args.Peek(key)), true
	})
	if err != nil {
		return err
	}
	page, err := s.accounts.ListUsers(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(newListResponse(page))
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	u, err := s.accounts.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(newUserResponse(u))
}

func (s *Server) handleUpdateUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := s.accounts.UpdateUser(c.UserContext(), c.Params("id"), service.Update{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(newUserResponse(u))
}

func (s *Server) handleDeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.accounts.DeleteUser(c.UserContext(), id); err != nil {
		return err
	}
	s.log.WithFields(map[string]interface{}{
		"id": id,
		"by": c.Locals(callerKey),
	}).Info("user deleted")
	return c.JSON(messageResponse{Message: "User deleted successfully."})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := s.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokenResponse{Token: session.Token})
}
