package post

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"

	"blog-posts/internal/apperr"
	"blog-posts/internal/db"
)

var postColumns = []string{"id", "title", "body", "published"}

func newTestRepository(c *qt.C, dialect db.Dialect) (*Repository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() {
		c.Check(mock.ExpectationsWereMet(), qt.IsNil)
		_ = mockDB.Close()
	})
	ex := db.NewExecutor(db.NewSQLPool(mockDB, dialect), slog.New(slog.DiscardHandler), nil)
	return NewRepository(ex), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestRepository_List(t *testing.T) {
	t.Run("published only", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("SELECT id, title, body, published FROM posts WHERE published = TRUE LIMIT $1")).
			WithArgs(ListLimit).
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(1, "A", "B", true))

		posts, err := repo.List(context.Background(), false)
		c.Assert(err, qt.IsNil)
		c.Assert(posts, qt.DeepEquals, []Post{{ID: 1, Title: "A", Body: "B", Published: true}})
	})

	t.Run("include unpublished", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("SELECT id, title, body, published FROM posts LIMIT $1")).
			WithArgs(ListLimit).
			WillReturnRows(sqlmock.NewRows(postColumns).
				AddRow(1, "A", "B", true).
				AddRow(2, "C", "D", false))

		posts, err := repo.List(context.Background(), true)
		c.Assert(err, qt.IsNil)
		c.Assert(posts, qt.HasLen, 2)
		c.Assert(posts[1].Published, qt.IsFalse)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.MySQL)

		mock.ExpectQuery(q("SELECT id, title, body, published FROM posts WHERE published = TRUE LIMIT ?")).
			WillReturnRows(sqlmock.NewRows(postColumns))

		posts, err := repo.List(context.Background(), false)
		c.Assert(err, qt.IsNil)
		c.Assert(posts, qt.IsNotNil)
		c.Assert(posts, qt.HasLen, 0)
	})

	t.Run("driver failure", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation \"posts\" does not exist"))

		_, err := repo.List(context.Background(), false)
		c.Assert(apperr.KindOf(err), qt.Equals, apperr.KindInternal)
	})
}

func TestRepository_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("SELECT id, title, body, published FROM posts WHERE id = $1")).
			WithArgs(int32(7)).
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(7, "A", "B", false))

		p, err := repo.Get(context.Background(), 7)
		c.Assert(err, qt.IsNil)
		c.Assert(p, qt.Equals, Post{ID: 7, Title: "A", Body: "B"})
	})

	t.Run("missing row is not found", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("FROM posts WHERE id = $1")).
			WithArgs(int32(99)).
			WillReturnRows(sqlmock.NewRows(postColumns))

		_, err := repo.Get(context.Background(), 99)
		c.Assert(apperr.KindOf(err), qt.Equals, apperr.KindNotFound)
	})

	t.Run("driver failure is internal", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("FROM posts WHERE id = $1")).WillReturnError(errors.New("conn reset"))

		_, err := repo.Get(context.Background(), 1)
		c.Assert(apperr.KindOf(err), qt.Equals, apperr.KindInternal)
	})
}

func TestRepository_Create(t *testing.T) {
	t.Run("postgres returning", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("INSERT INTO posts (title, body) VALUES ($1, $2) RETURNING id, title, body, published")).
			WithArgs("A", "B").
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(5, "A", "B", false))

		p, err := repo.Create(context.Background(), NewPost{Title: "A", Body: "B"})
		c.Assert(err, qt.IsNil)
		c.Assert(p, qt.Equals, Post{ID: 5, Title: "A", Body: "B", Published: false})
	})

	t.Run("empty strings are accepted", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("INSERT INTO posts")).
			WithArgs("", "").
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(6, "", "", false))

		p, err := repo.Create(context.Background(), NewPost{})
		c.Assert(err, qt.IsNil)
		c.Assert(p.ID, qt.Equals, int32(6))
	})

	t.Run("mysql reads back last insert id", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.MySQL)

		mock.ExpectExec(q("INSERT INTO posts (title, body) VALUES (?, ?)")).
			WithArgs("A", "B").
			WillReturnResult(sqlmock.NewResult(8, 1))
		mock.ExpectQuery(q("SELECT id, title, body, published FROM posts WHERE id = LAST_INSERT_ID()")).
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(8, "A", "B", false))

		p, err := repo.Create(context.Background(), NewPost{Title: "A", Body: "B"})
		c.Assert(err, qt.IsNil)
		c.Assert(p.ID, qt.Equals, int32(8))
	})
}

func TestRepository_Publish(t *testing.T) {
	t.Run("returns updated row", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("UPDATE posts SET published = TRUE WHERE id = $1 RETURNING id, title, body, published")).
			WithArgs(int32(3)).
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(3, "A", "B", true))

		p, err := repo.Publish(context.Background(), 3)
		c.Assert(err, qt.IsNil)
		c.Assert(p.Published, qt.IsTrue)
	})

	t.Run("unknown id is internal, not not-found", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		mock.ExpectQuery(q("UPDATE posts SET published = TRUE")).
			WithArgs(int32(404)).
			WillReturnRows(sqlmock.NewRows(postColumns))

		_, err := repo.Publish(context.Background(), 404)
		c.Assert(apperr.KindOf(err), qt.Equals, apperr.KindInternal)
	})

	t.Run("mysql updates then reads", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.MySQL)

		mock.ExpectExec(q("UPDATE posts SET published = TRUE WHERE id = ?")).
			WithArgs(int32(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("SELECT id, title, body, published FROM posts WHERE id = ?")).
			WithArgs(int32(3)).
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(3, "A", "B", true))

		p, err := repo.Publish(context.Background(), 3)
		c.Assert(err, qt.IsNil)
		c.Assert(p.Published, qt.IsTrue)
	})
}

func TestRepository_Delete(t *testing.T) {
	t.Run("by text escapes wildcards", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		text := "50%_off"
		mock.ExpectExec(q("DELETE FROM posts WHERE title LIKE $1")).
			WithArgs(`%50\%\_off%`).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.Delete(context.Background(), DeleteFilter{Text: &text})
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, int64(3))
	})

	t.Run("by id with no match", func(t *testing.T) {
		c := qt.New(t)
		repo, mock := newTestRepository(c, db.Postgres)

		id := int32(12)
		mock.ExpectExec(q("DELETE FROM posts WHERE id = $1")).
			WithArgs(int32(12)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		n, err := repo.Delete(context.Background(), DeleteFilter{ID: &id})
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, int64(0))
	})

	t.Run("invalid filter never reaches the database", func(t *testing.T) {
		c := qt.New(t)
		repo, _ := newTestRepository(c, db.Postgres)

		_, err := repo.Delete(context.Background(), DeleteFilter{})
		c.Assert(apperr.KindOf(err), qt.Equals, apperr.KindBadRequest)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	tests := []struct {
		dialect db.Dialect
		idCol   string
	}{
		{dialect: db.Postgres, idCol: "id SERIAL PRIMARY KEY"},
		{dialect: db.MySQL, idCol: "id INT AUTO_INCREMENT PRIMARY KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			c := qt.New(t)
			repo, mock := newTestRepository(c, tt.dialect)

			mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS posts (" + tt.idCol + ",")).
				WillReturnResult(sqlmock.NewResult(0, 0))

			c.Assert(repo.EnsureSchema(context.Background()), qt.IsNil)
		})
	}
}
