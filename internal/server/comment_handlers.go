package server

import (
	"forum/internal/middleware"
	"forum/internal/notifications"
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments returns the comment threads of a post (public)
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.comments.ListComments(c.UserContext(), postID, middleware.UserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment creates a comment on a post (protected). A parentId naming a
// reply attaches the comment to that reply's thread root.
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{content=string,parentId=int} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /Post/{id}/Comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parentId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	created, err := s.comments.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   userID,
		PostID:   postID,
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventCommentCreated, userID, postEventPayload(postID, map[string]any{
		"commentId": created.ID,
		"parentId":  created.ParentID,
	}))

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateComment rewrites a comment's content (owner or admin)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	updated, err := s.comments.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventCommentUpdated, userID, postEventPayload(updated.PostID, map[string]any{
		"commentId": updated.ID,
	}))

	return c.JSON(updated)
}

// DeleteComment removes a comment, or blanks it when replies depend on it.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.comments.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventCommentDeleted, userID, postEventPayload(res.Comment.PostID, map[string]any{
		"commentId":      commentID,
		"tombstoned":     res.Tombstoned,
		"prunedParentId": res.PrunedParentID,
	}))

	return c.JSON(fiber.Map{
		"id":             commentID,
		"tombstoned":     res.Tombstoned,
		"prunedParentId": res.PrunedParentID,
	})
}

// LikeComment toggles the caller's like on a comment
func (s *Server) LikeComment(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.comments.ToggleLike(c.UserContext(), userID, commentID)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventCommentLikeToggled, userID, map[string]any{
		"commentId":  commentID,
		"totalLikes": res.TotalLikes,
	})

	return c.JSON(res)
}
