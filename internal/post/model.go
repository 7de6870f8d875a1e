// Package post is the single resource the service exposes.
package post

import "blog-posts/internal/apperr"

// Post is a persisted row of the posts table.
type Post struct {
	ID        int32  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// NewPost is the creation payload. A new post always starts unpublished.
type NewPost struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// DeleteFilter selects rows to delete, either by title substring or by id.
// Exactly one of the two must be set.
type DeleteFilter struct {
	Text *string `json:"text"`
	ID   *int32  `json:"id"`
}

const messageDeleteFilter = "request needs exactly one of 'text' or 'id'"

func (f DeleteFilter) Validate() error {
	if (f.Text == nil) == (f.ID == nil) {
		return apperr.BadRequest(messageDeleteFilter)
	}
	return nil
}
