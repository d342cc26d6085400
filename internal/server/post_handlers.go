package server

import (
	"strconv"

	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/notifications"
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/Post?sortBy=...
// @Summary List posts
// @Description All posts with per-viewer like state. Unknown sort keys sort newest first.
// @Tags posts
// @Produce json
// @Param sortBy query string false "newest|oldest|likes|leastlikes|comments|leastcomments"
// @Success 200 {array} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /Post [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.posts.ListPosts(c.UserContext(), c.Query("sortBy"), middleware.UserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// SearchPosts handles GET /api/Post/search?term=...
// @Summary Search posts
// @Description Matches title, content and tag names. Terms shorter than two characters return an empty list.
// @Tags posts
// @Produce json
// @Param term query string true "Search term"
// @Success 200 {array} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /Post/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.posts.SearchPosts(c.UserContext(), c.Query("term"), middleware.UserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/Post/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.posts.GetPost(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/Post
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Post [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var in service.CreatePostInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = userID

	post, err := s.posts.CreatePost(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventPostCreated, userID, postEventPayload(post.ID, map[string]any{
		"title":      post.Title,
		"categoryId": post.CategoryID,
	}))

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/Post/:id. Only the author or an admin may
// update; the tag list is replaced wholesale.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var in service.UpdatePostInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = userID
	in.PostID = postID

	post, err := s.posts.UpdatePost(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventPostUpdated, userID, postEventPayload(post.ID, map[string]any{
		"title":    post.Title,
		"editedAt": post.EditedAt,
	}))

	return c.JSON(post)
}

// DeletePost handles DELETE /api/Post/:id. A caller who may not delete the
// post is sent back to it with 303.
// @Summary Delete post
// @Tags posts
// @Success 204
// @Success 303 "Not the author; redirected to the post"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Post/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	err = s.posts.DeletePost(c.UserContext(), service.DeletePostInput{UserID: userID, PostID: postID})
	if models.IsForbidden(err) {
		return c.Redirect("/api/Post/"+strconv.FormatUint(uint64(postID), 10), fiber.StatusSeeOther)
	}
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventPostDeleted, userID, postEventPayload(postID, nil))
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/Post/:id/like
// This endpoint toggles the like status - if already liked, it unlikes; if not liked, it likes.
// Liking a missing post redirects to the post list.
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.posts.ToggleLike(c.UserContext(), userID, postID)
	if models.IsNotFound(err) {
		return c.Redirect("/api/Post", fiber.StatusSeeOther)
	}
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventPostLikeToggled, userID, postEventPayload(postID, map[string]any{
		"totalLikes": res.TotalLikes,
	}))

	return c.JSON(res)
}
