package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/njimyasmine/user-management-api/internal/pagination"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u users.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type listResponse struct {
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalUsers int            `json:"totalUsers"`
	TotalPages int            `json:"totalPages"`
	Users      []userResponse `json:"users"`
}

func newListResponse(p pagination.Page[users.User]) listResponse {
	resp := listResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalUsers: p.Total,
		TotalPages: p.TotalPages,
		Users:      make([]userResponse, 0, len(p.Items)),
	}
	for _, u := range p.Items {
		resp.Users = append(resp.Users, newUserResponse(u))
	}
	return resp
}

// parseBody decodes a JSON body into dst. An empty body leaves dst zeroed so
// the service reports the missing fields.
func parseBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}
