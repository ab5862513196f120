package text

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/bookrec/core"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// DefaultCategory 是关键词均未命中时的类别。
const DefaultCategory = "uncategorized"

// Romanization 是一条 拉丁写法 -> 本地写法 的映射。
type Romanization struct {
	Latin string `yaml:"latin"`
	Local string `yaml:"local"`
}

// CategoryRule 是一个类别及其关键词列表。
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Tables 是规范化、系列判定、类别估计所用的查表数据（支持 YAML）。
// 默认表随二进制嵌入，也可以从文件加载以便扩展。
type Tables struct {
	Version         int            `yaml:"version"`
	Editions        []string       `yaml:"editions"`
	Romanization    []Romanization `yaml:"romanization"`
	Categories      []CategoryRule `yaml:"categories"`
	DefaultCategory string         `yaml:"default_category"`
}

// DefaultTables 返回嵌入的默认查表数据。
func DefaultTables() *Tables {
	t, err := ParseTables(defaultTablesYAML)
	if err != nil {
		panic(fmt.Sprintf("text: embedded tables are invalid: %v", err))
	}
	return t
}

// LoadTables 从 YAML 文件加载查表数据。
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeNotFound, "read tables", err)
	}
	return ParseTables(data)
}

// ParseTables 解析 YAML 查表数据，并做小写化与校验。
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "parse tables", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) normalize() error {
	if t.DefaultCategory == "" {
		t.DefaultCategory = DefaultCategory
	}
	for i, r := range t.Romanization {
		latin := strings.ToLower(strings.TrimSpace(r.Latin))
		if latin == "" || strings.TrimSpace(r.Local) == "" {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("tables: romanization entry %d is incomplete", i))
		}
		t.Romanization[i] = Romanization{Latin: latin, Local: strings.ToLower(strings.TrimSpace(r.Local))}
	}
	for i, c := range t.Categories {
		if c.Name == "" {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("tables: category entry %d has no name", i))
		}
		kws := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		t.Categories[i].Keywords = kws
	}
	editions := t.Editions[:0]
	for _, e := range t.Editions {
		if e = strings.TrimSpace(e); e != "" {
			editions = append(editions, e)
		}
	}
	t.Editions = editions
	return nil
}
