package server

import (
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/Category
// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Category
// @Router /Category [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.dashboard.ListCategories(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/Category/:id
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.dashboard.GetCategory(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

// ListTags handles GET /api/Tag
// @Summary List tags
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Tag
// @Router /Tag [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.dashboard.ListTags(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tags)
}

// parseCategoryInput reads a JSON or multipart category form; a multipart
// "picture" file becomes the upload.
func parseCategoryInput(c *fiber.Ctx) (service.CategoryInput, error) {
	var in service.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return in, err
	}
	picture, err := formFileBytes(c, "picture", service.CategoryPictureMaxBytes)
	if err != nil {
		return in, err
	}
	in.Picture = picture
	return in, nil
}

// CreateCategory handles POST /api/Dashboard/Category
// @Summary Create category
// @Description JSON or multipart form with an optional "picture" file of at most 8 MB.
// @Tags dashboard
// @Accept json,mpfd
// @Produce json
// @Param name formData string true "Name"
// @Param color formData string false "#rrggbb"
// @Param picture formData file false "Picture"
// @Success 201 {object} models.Category
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Dashboard/Category [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	in, err := parseCategoryInput(c)
	if err == errResponseWritten {
		return nil
	}
	if err != nil {
		return s.respondError(c, err)
	}

	category, err := s.dashboard.CreateCategory(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/Dashboard/Category/:id
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := parseCategoryInput(c)
	if err == errResponseWritten {
		return nil
	}
	if err != nil {
		return s.respondError(c, err)
	}

	category, err := s.dashboard.UpdateCategory(c.UserContext(), id, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/Dashboard/Category/:id
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.dashboard.DeleteCategory(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteCategoryPicture handles DELETE /api/Dashboard/Category/:id/picture
func (s *Server) DeleteCategoryPicture(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.dashboard.DeleteCategoryPicture(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

func (s *Server) CreateTag(c *fiber.Ctx) error {
	var in service.TagInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	tag, err := s.dashboard.CreateTag(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (s *Server) UpdateTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.TagInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	tag, err := s.dashboard.UpdateTag(c.UserContext(), id, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tag)
}

func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.dashboard.DeleteTag(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserActivity handles GET /api/Dashboard/users/:id/activity
func (s *Server) GetUserActivity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	activity, err := s.dashboard.UserActivity(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(activity)
}
