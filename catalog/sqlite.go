package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rushteam/bookrec/core"
)

// SQLite 是基于 SQLite 的书目存储。
type SQLite struct {
	db *sql.DB
}

const selectBookFields = `id, external_id, title, description,
	authors_json, categories_json, rating, image, created_at`

// Open 打开（或创建）path 处的数据库；path 为 ":memory:" 时使用内存库。
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "open "+path, err)
	}

	// SQLite 不支持并发写
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInternalError, "create schema", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS books (
			id TEXT NOT NULL,
			reader_id TEXT NOT NULL,
			external_id TEXT,
			title TEXT NOT NULL,
			description TEXT,
			authors_json TEXT NOT NULL DEFAULT '[]',
			categories_json TEXT NOT NULL DEFAULT '[]',
			rating REAL,
			image TEXT,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (reader_id, id)
		);

		CREATE INDEX IF NOT EXISTS idx_books_reader_created ON books(reader_id, created_at DESC);
	`
	_, err := db.Exec(schema)
	return err
}

// OwnedBooks 按 created_at 倒序返回读者的书；rating 为 NULL 时保持缺失。
func (s *SQLite) OwnedBooks(ctx context.Context, readerID string) ([]core.BookRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectBookFields+` FROM books WHERE reader_id = ? ORDER BY created_at DESC, id ASC`,
		readerID)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "query books", err)
	}
	defer rows.Close()

	var out []core.BookRecord
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "iterate books", err)
	}
	return out, nil
}

func scanBook(rows *sql.Rows) (core.BookRecord, error) {
	var (
		b                     core.BookRecord
		externalID, desc, img sql.NullString
		authors, categories   string
		rating                sql.NullFloat64
		created               int64
	)
	if err := rows.Scan(&b.ID, &externalID, &b.Title, &desc, &authors, &categories, &rating, &img, &created); err != nil {
		return b, fmt.Errorf("scan book: %w", err)
	}
	b.ExternalID = externalID.String
	b.Description = desc.String
	b.Image = img.String
	if err := json.Unmarshal([]byte(authors), &b.Authors); err != nil {
		return b, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "decode authors of "+b.ID, err)
	}
	if err := json.Unmarshal([]byte(categories), &b.Categories); err != nil {
		return b, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "decode categories of "+b.ID, err)
	}
	if rating.Valid {
		b.Rating = core.Float(rating.Float64)
	}
	b.CreatedAt = time.Unix(0, created).UTC()
	b.Provenance = core.ProvenanceOwned
	return b, nil
}

// Import 在一个事务内写入（覆盖）读者的书。ID 为空时用 externalId，
// 两者都为空的记录被跳过。CreatedAt 为零值时使用当前时间。
func (s *SQLite) Import(ctx context.Context, readerID string, books []core.BookRecord) (int, error) {
	if readerID == "" {
		return 0, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "reader id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO books (
			id, reader_id, external_id, title, description,
			authors_json, categories_json, rating, image, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	n := 0
	for i, b := range books {
		id := b.ID
		if id == "" {
			id = b.ExternalID
		}
		if id == "" {
			continue
		}
		authors, _ := json.Marshal(nonNil(b.Authors))
		categories, _ := json.Marshal(nonNil(b.Categories))

		var rating sql.NullFloat64
		if b.Rating != nil && !math.IsNaN(*b.Rating) && !math.IsInf(*b.Rating, 0) {
			rating = sql.NullFloat64{Float64: *b.Rating, Valid: true}
		}
		created := b.CreatedAt
		if created.IsZero() {
			// 同一批次保持输入顺序：越靠前越新
			created = now.Add(-time.Duration(i) * time.Microsecond)
		}

		if _, err := stmt.ExecContext(ctx, id, readerID, b.ExternalID, b.Title, b.Description,
			string(authors), string(categories), rating, b.Image, created.UnixNano()); err != nil {
			return 0, fmt.Errorf("insert %s: %w", id, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "commit", err)
	}
	return n, nil
}

// Delete 删除读者的一本书；不存在时返回 NOT_FOUND。
func (s *SQLite) Delete(ctx context.Context, readerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE reader_id = ? AND id = ?`, readerID, id)
	if err != nil {
		return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "delete "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "delete "+id, errors.New("no such book"))
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
