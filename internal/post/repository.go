package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-posts/internal/apperr"
	"blog-posts/internal/db"
)

// ListLimit caps every listing.
const ListLimit = 20

const columns = "id, title, body, published"

// Repository issues exactly one statement per operation through the executor.
type Repository struct {
	ex *db.Executor
}

func NewRepository(ex *db.Executor) *Repository {
	return &Repository{ex: ex}
}

// List returns up to ListLimit posts in storage order. Unpublished posts are
// skipped unless includeUnpublished is set.
func (r *Repository) List(ctx context.Context, includeUnpublished bool) ([]Post, error) {
	return db.Do(ctx, r.ex, "list_posts", func(ctx context.Context, conn db.Conn) ([]Post, error) {
		query := "SELECT " + columns + " FROM posts WHERE published = TRUE LIMIT ?"
		if includeUnpublished {
			query = "SELECT " + columns + " FROM posts LIMIT ?"
		}
		rows, err := conn.Query(ctx, conn.Dialect().Rebind(query), ListLimit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		posts := make([]Post, 0)
		for rows.Next() {
			var p Post
			if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.Published); err != nil {
				return nil, fmt.Errorf("scan post: %w", err)
			}
			posts = append(posts, p)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return posts, nil
	})
}

// Get returns the post with id, or an apperr NotFound.
func (r *Repository) Get(ctx context.Context, id int32) (Post, error) {
	return db.Do(ctx, r.ex, "get_post", func(ctx context.Context, conn db.Conn) (Post, error) {
		p, err := scanPost(conn.QueryRow(ctx, conn.Dialect().Rebind("SELECT "+columns+" FROM posts WHERE id = ?"), id))
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, apperr.NotFound()
		}
		return p, err
	})
}

// Create inserts in as an unpublished post and returns the stored row.
func (r *Repository) Create(ctx context.Context, in NewPost) (Post, error) {
	return db.Do(ctx, r.ex, "create_post", func(ctx context.Context, conn db.Conn) (Post, error) {
		d := conn.Dialect()
		if d.Returning {
			return scanPost(conn.QueryRow(ctx,
				d.Rebind("INSERT INTO posts (title, body) VALUES (?, ?) RETURNING "+columns),
				in.Title, in.Body))
		}
		if _, err := conn.Exec(ctx, d.Rebind("INSERT INTO posts (title, body) VALUES (?, ?)"), in.Title, in.Body); err != nil {
			return Post{}, err
		}
		// LAST_INSERT_ID is per connection, and conn is ours until the work returns.
		return scanPost(conn.QueryRow(ctx, "SELECT "+columns+" FROM posts WHERE id = LAST_INSERT_ID()"))
	})
}

// Publish marks the post as published and returns the updated row. An unknown
// id is not reported as NotFound: the returning-update yields no row, and that
// surfaces as an internal error.
func (r *Repository) Publish(ctx context.Context, id int32) (Post, error) {
	return db.Do(ctx, r.ex, "publish_post", func(ctx context.Context, conn db.Conn) (Post, error) {
		d := conn.Dialect()
		if d.Returning {
			return scanPost(conn.QueryRow(ctx,
				d.Rebind("UPDATE posts SET published = TRUE WHERE id = ? RETURNING "+columns), id))
		}
		if _, err := conn.Exec(ctx, d.Rebind("UPDATE posts SET published = TRUE WHERE id = ?"), id); err != nil {
			return Post{}, err
		}
		return scanPost(conn.QueryRow(ctx, d.Rebind("SELECT "+columns+" FROM posts WHERE id = ?"), id))
	})
}

// Delete removes the rows selected by f and returns how many were removed.
func (r *Repository) Delete(ctx context.Context, f DeleteFilter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return db.Do(ctx, r.ex, "delete_posts", func(ctx context.Context, conn db.Conn) (int64, error) {
		d := conn.Dialect()
		if f.Text != nil {
			return conn.Exec(ctx, d.Rebind("DELETE FROM posts WHERE title LIKE ?"), db.ContainsPattern(*f.Text))
		}
		return conn.Exec(ctx, d.Rebind("DELETE FROM posts WHERE id = ?"), *f.ID)
	})
}

// EnsureSchema creates the posts table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := db.Do(ctx, r.ex, "ensure_schema", func(ctx context.Context, conn db.Conn) (int64, error) {
		return conn.Exec(ctx, createTableSQL(conn.Dialect()))
	})
	return err
}

func createTableSQL(d db.Dialect) string {
	id := "id SERIAL PRIMARY KEY"
	if d.Name == db.MySQL.Name {
		id = "id INT AUTO_INCREMENT PRIMARY KEY"
	}
	return "CREATE TABLE IF NOT EXISTS posts (" + id + ", " +
		"title TEXT NOT NULL, body TEXT NOT NULL, published BOOLEAN NOT NULL DEFAULT FALSE)"
}

func scanPost(row db.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.Published)
	return p, err
}
