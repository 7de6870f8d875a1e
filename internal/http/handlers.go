// Package httpx maps the post routes onto the storage layer.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blog-posts/internal/apperr"
	"blog-posts/internal/post"
)

type listQuery struct {
	IncludeUnpublished bool `form:"include_unpublished"`
}

func (s *Server) listPosts(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.writeError(c, apperr.BadRequest("include_unpublished must be a boolean"))
		return
	}
	posts, err := s.Posts.List(c.Request.Context(), q.IncludeUnpublished)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) getPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.writeError(c, apperr.NotFound())
		return
	}
	p, err := s.Posts.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// createPostRequest uses pointers so a missing key can be told apart from an
// empty string; only the former is rejected.
type createPostRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

func (s *Server) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperr.BadRequest("invalid JSON payload"))
		return
	}
	switch {
	case req.Title == nil:
		s.writeError(c, apperr.BadRequest("missing field `title`"))
		return
	case req.Body == nil:
		s.writeError(c, apperr.BadRequest("missing field `body`"))
		return
	}

	p, err := s.Posts.Create(c.Request.Context(), post.NewPost{Title: *req.Title, Body: *req.Body})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) publishPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.writeError(c, apperr.NotFound())
		return
	}
	p, err := s.Posts.Publish(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deletePosts(c *gin.Context) {
	var f post.DeleteFilter
	if err := c.ShouldBindJSON(&f); err != nil {
		s.writeError(c, apperr.BadRequest("invalid JSON payload"))
		return
	}
	if err := f.Validate(); err != nil {
		s.writeError(c, err)
		return
	}
	n, err := s.Posts.Delete(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// pathID parses the :id segment. Anything that is not an int32 cannot name
// a row.
func pathID(c *gin.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}
