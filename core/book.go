package core

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/rushteam/bookrec/pkg/conv"
)

// Provenance 标记一条书目记录的来源：读者已拥有，或外部检索得到的候选。
type Provenance string

const (
	ProvenanceOwned     Provenance = "owned"
	ProvenanceCandidate Provenance = "candidate"
)

// DefaultProfileRating 是画像加权时评分缺失/非法的中位默认值（5 分制）。
const DefaultProfileRating = 3.0

// BookRecord 是推荐链路的输入书目，进入 Pipeline 后只读。
// 可选字段显式化：Rating 为 nil 表示缺失；Description/Categories 为空即缺失。
type BookRecord struct {
	ID          string     `json:"id,omitempty"`
	ExternalID  string     `json:"externalId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Authors     []string   `json:"authors,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	Image       string     `json:"image,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
	Provenance  Provenance `json:"provenance,omitempty"`
}

// HasTitle 标题非空（去掉首尾空白后）。
func (b BookRecord) HasTitle() bool {
	return strings.TrimSpace(b.Title) != ""
}

// DisplayRating 返回展示用评分，缺失时为 0。
func (b BookRecord) DisplayRating() float64 {
	if b.Rating == nil || math.IsNaN(*b.Rating) {
		return 0
	}
	return *b.Rating
}

// ProfileRating 返回画像加权用评分：缺失、NaN 或 <= 0 时取 DefaultProfileRating。
func (b BookRecord) ProfileRating() float64 {
	if b.Rating == nil {
		return DefaultProfileRating
	}
	r := *b.Rating
	if math.IsNaN(r) || r <= 0 {
		return DefaultProfileRating
	}
	return r
}

// WithProvenance 返回打上来源标记的副本。
func (b BookRecord) WithProvenance(p Provenance) BookRecord {
	b.Provenance = p
	return b
}

// UnmarshalJSON 兼容外部数据源松散的 rating：数字、数字字符串或 null；
// 非数字的 rating 视为缺失，不报错。
func (b *BookRecord) UnmarshalJSON(data []byte) error {
	type plain BookRecord
	var raw struct {
		plain
		Rating any `json:"rating"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BookRecord(raw.plain)
	b.Rating = ParseRating(raw.Rating)
	return nil
}

// ParseRating 把任意值解析为可选评分；无法解析时返回 nil。
func ParseRating(v any) *float64 {
	f, ok := conv.ToFloat64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Float 返回指向 v 的指针，便于构造可选评分。
func Float(v float64) *float64 {
	return &v
}
