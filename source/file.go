package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rushteam/bookrec/core"
)

// File 从本地 JSON 文件（BookRecord 数组）读取候选，按查询词做不区分大小写的子串匹配。
// 空查询返回全部记录。
type File struct {
	Path string
}

func (f *File) Name() string { return "file" }

func (f *File) Candidates(ctx context.Context, query string) ([]core.BookRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	books, err := ReadBooks(f.Path)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return books, nil
	}
	out := make([]core.BookRecord, 0, len(books))
	for _, b := range books {
		if matches(b, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

func matches(b core.BookRecord, q string) bool {
	fields := append([]string{b.Title, b.Description}, b.Authors...)
	fields = append(fields, b.Categories...)
	for _, s := range fields {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// ReadBooks 读取 BookRecord 数组；rating 字段按宽松规则解析。
func ReadBooks(path string) ([]core.BookRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeNotFound, "read "+path, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var books []core.BookRecord
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "parse "+path, err)
	}
	return books, nil
}
