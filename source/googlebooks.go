package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/rushteam/bookrec/core"
)

const (
	// GoogleBooksURL 是 Google Books volumes 检索接口
	GoogleBooksURL = "https://www.googleapis.com/books/v1/volumes"

	// DefaultMaxResults 是单次检索返回的最大条数（接口上限 40）
	DefaultMaxResults = 20

	// DefaultRateLimit 每秒请求数
	DefaultRateLimit = 5.0
)

// GoogleBooks 是 Google Books 检索源，请求经过令牌桶限流。
// 不做重试：单次失败交给 Fanout 记录并跳过。
type GoogleBooks struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	lang       string
	maxResults int
}

// GoogleBooksOption 配置 GoogleBooks。
type GoogleBooksOption func(*GoogleBooks)

func WithAPIKey(key string) GoogleBooksOption {
	return func(g *GoogleBooks) { g.apiKey = key }
}

func WithHTTPClient(hc *http.Client) GoogleBooksOption {
	return func(g *GoogleBooks) { g.httpClient = hc }
}

// WithBaseURL 替换接口地址（用于测试）。
func WithBaseURL(u string) GoogleBooksOption {
	return func(g *GoogleBooks) { g.baseURL = u }
}

// WithLanguage 设置 langRestrict，空字符串表示不限制。
func WithLanguage(lang string) GoogleBooksOption {
	return func(g *GoogleBooks) { g.lang = lang }
}

func WithMaxResults(n int) GoogleBooksOption {
	return func(g *GoogleBooks) {
		if n > 0 {
			g.maxResults = min(n, 40)
		}
	}
}

func WithRateLimit(perSecond float64) GoogleBooksOption {
	return func(g *GoogleBooks) { g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

func NewGoogleBooks(opts ...GoogleBooksOption) *GoogleBooks {
	g := &GoogleBooks{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    GoogleBooksURL,
		lang:       "ja",
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleBooks) Name() string { return "googlebooks" }

type volumesResponse struct {
	Items []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Description   string   `json:"description"`
			Categories    []string `json:"categories"`
			AverageRating any      `json:"averageRating"`
			ImageLinks    struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (g *GoogleBooks) Candidates(ctx context.Context, query string) ([]core.BookRecord, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(g.maxResults))
	if g.lang != "" {
		params.Set("langRestrict", g.lang)
	}
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "google books request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.NewDomainError(core.ModuleSource, core.ErrorCodeUnavailable,
			fmt.Sprintf("google books: status %d", resp.StatusCode))
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "decode google books response", err)
	}

	out := make([]core.BookRecord, 0, len(body.Items))
	for _, it := range body.Items {
		v := it.VolumeInfo
		out = append(out, core.BookRecord{
			ExternalID:  it.ID,
			Title:       v.Title,
			Description: v.Description,
			Authors:     v.Authors,
			Categories:  v.Categories,
			Rating:      core.ParseRating(v.AverageRating),
			Image:       v.ImageLinks.Thumbnail,
			Provenance:  core.ProvenanceCandidate,
		})
	}
	return out, nil
}
