// Package catalog 读取读者已拥有的书目。
package catalog

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/source"
)

// OwnedProvider 按读者返回已拥有的书，顺序即语料前缀顺序（最新加入的在前）。
type OwnedProvider interface {
	OwnedBooks(ctx context.Context, readerID string) ([]core.BookRecord, error)
}

// JSONFile 从 BookRecord 数组文件读取已拥有的书，与读者无关。
type JSONFile struct {
	Path string
}

func (f *JSONFile) OwnedBooks(ctx context.Context, _ string) ([]core.BookRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	books, err := source.ReadBooks(f.Path)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Provenance = core.ProvenanceOwned
	}
	return books, nil
}
