package text

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// 系列键剥离规则，按顺序执行。
var seriesStripRes = []*regexp.Regexp{
	// 括号注记：(...) [...] （...） 【...】 「...」 『...』 ［...］
	regexp.MustCompile(`[(（\[［【「『][^)）\]］】」』]*[)）\]］】」』]`),
	// 序数卷/话：第N巻 第N話 第N章 第N編 第N部
	regexp.MustCompile(`第\s*[0-9０-９]+\s*[巻話章編部]`),
	regexp.MustCompile(`[0-9０-９]+\s*巻`),
	regexp.MustCompile(`(?i)\bvol(?:ume)?\.?\s*[0-9]+`),
	regexp.MustCompile(`(?i)\b(?:book|part|no\.?)\s*[0-9]+`),
	regexp.MustCompile(`#\s*[0-9]+`),
	regexp.MustCompile(`(?i)\b[0-9]+(?:st|nd|rd|th)\s+(?:volume|edition|season|book)`),
}

var (
	seriesTrailingNumRe = regexp.MustCompile(`[0-9０-９]+\s*$`)
	// 装饰性标点：非 字母/数字/组合符/空白
	seriesPunctRe = regexp.MustCompile(`[^\p{L}\p{N}\p{M}\s]+`)
)

// 卷号识别，按顺序取首个命中。
var (
	volumeOneRe     = regexp.MustCompile(`一巻|上巻`)
	volumeNumberRes = []*regexp.Regexp{
		regexp.MustCompile(`第?([0-9]+)巻`),
		regexp.MustCompile(`(?i)vol\.?\s*([0-9]+)`),
		regexp.MustCompile(`#([0-9]+)\s*$`),
		regexp.MustCompile(`\s([0-9]+)\s*$`),
	}
)

// Series 把书名规约为系列键，并判断两个系列键是否同一系列。
// 无状态，可并发使用。
type Series struct {
	romanization []Romanization
	editionRe    *regexp.Regexp
}

// NewSeries 用查表数据构建 Series；t 为 nil 时使用默认表。
func NewSeries(t *Tables) *Series {
	if t == nil {
		t = DefaultTables()
	}
	return &Series{
		romanization: t.Romanization,
		editionRe:    editionPattern(t.Editions),
	}
}

// Key 返回书名的系列键：小写、罗马字替换为本地写法、去掉卷号/版本/括号注记、
// 去掉装饰性标点并合并空白。
func (s *Series) Key(title string) string {
	key := strings.ToLower(title)
	for _, r := range s.romanization {
		key = strings.ReplaceAll(key, r.Latin, r.Local)
	}
	return fixedPoint(key, s.strip)
}

func (s *Series) strip(key string) string {
	for _, re := range seriesStripRes {
		key = re.ReplaceAllString(key, " ")
	}
	if s.editionRe != nil {
		key = s.editionRe.ReplaceAllString(key, " ")
	}
	key = seriesPunctRe.ReplaceAllString(key, " ")
	key = strings.TrimSpace(spaceRe.ReplaceAllString(key, " "))
	return strings.TrimSpace(seriesTrailingNumRe.ReplaceAllString(key, ""))
}

// Same 判断两个书名是否属于同一系列。
func (s *Series) Same(titleA, titleB string) bool {
	return SameSeries(s.Key(titleA), s.Key(titleB))
}

// SameSeries 判断两个系列键是否同一系列：完全相等；或一方是另一方的子串，
// 且较短键长度 > 3、长短比 < 1.5。长度按字符（rune）计。
// 空键不与任何键匹配。
func SameSeries(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	short, long := a, b
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if !strings.Contains(long, short) {
		return false
	}
	ls, ll := utf8.RuneCountInString(short), utf8.RuneCountInString(long)
	return ls > 3 && float64(ll)/float64(ls) < 1.5
}

// VolumeNumber 识别书名中的卷号；识别不到时返回 (0, false)。
func VolumeNumber(title string) (int, bool) {
	if volumeOneRe.MatchString(title) {
		return 1, true
	}
	for _, re := range volumeNumberRes {
		m := re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// IsFirstVolume 书名是否明确是第 1 卷。
func IsFirstVolume(title string) bool {
	n, ok := VolumeNumber(title)
	return ok && n == 1
}
