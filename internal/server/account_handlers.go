package server

import (
	"time"

	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/Account/register
// @Summary Register
// @Description Create an account. Reserved or malformed usernames answer 422.
// @Tags account
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 200 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /Account/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	if !s.flagEnabled(FlagRegistration, 0) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Registration is closed"))
	}

	var in service.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	user, err := s.accounts.Register(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.NewAccount(user))
}

// Login handles POST /api/Account/login
// @Summary Login
// @Description Exchange a username or email and password for a bearer token.
// @Tags account
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /Account/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	res, err := s.accounts.Login(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(res)
}

// Logout handles GET /api/Account/logout. It always succeeds; a presented
// token is revoked until it expires.
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	exp, _ := c.Locals("tokenExp").(time.Time)

	if err := s.accounts.Logout(c.UserContext(), jti, exp); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/Account/me
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.accounts.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.NewAccount(user))
}

// ChangePassword handles POST /api/Account/changePassword
// @Summary Change password
// @Tags account
// @Accept json
// @Param request body service.ChangePasswordInput true "Passwords"
// @Success 200 {object} object{message=string}
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Account/changePassword [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var in service.ChangePasswordInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	if err := s.accounts.ChangePassword(c.UserContext(), middleware.UserID(c), in); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed"})
}

// ChangeProfilePicture handles POST /api/Account/changeProfilePicture with a
// multipart "file" field.
func (s *Server) ChangeProfilePicture(c *fiber.Ctx) error {
	content, err := formFileBytes(c, "file", service.ProfilePictureMaxBytes)
	if err != nil {
		return s.respondError(c, err)
	}
	if len(content) == 0 {
		return s.respondError(c, models.NewUploadRejectedError("A picture file is required"))
	}

	if err := s.accounts.ChangeProfilePicture(c.UserContext(), middleware.UserID(c), content); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile picture updated"})
}

// GetProfilePicture handles GET /api/Account/profilePicture/:id
func (s *Server) GetProfilePicture(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	picture, err := s.accounts.ProfilePicture(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/webp")
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(picture)
}
