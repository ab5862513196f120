package bookrec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/rerank"
	"github.com/rushteam/bookrec/vector"
)

// Config 是推荐引擎的配置（YAML）。未出现的字段保持 DefaultConfig 的取值。
type Config struct {
	// RequestedCount 输出条数上限
	RequestedCount int `yaml:"requested_count"`
	// DiversityFactor 类别均衡阶段占输出的比例，0 表示直接取 Top-N
	DiversityFactor float64 `yaml:"diversity_factor"`
	// Randomness 多样性选择时跳过当前最优的概率
	Randomness float64 `yaml:"randomness"`
	// Seed 随机源种子，0 表示按时间取种
	Seed uint64 `yaml:"seed"`

	UseTitleInCorpus  bool `yaml:"use_title_in_corpus"`
	FilterSameSeries  bool `yaml:"filter_same_series"`
	PreferFirstVolume bool `yaml:"prefer_first_volume"`

	Weights  rank.Weights   `yaml:"weights"`
	MinScore float64        `yaml:"min_score"`
	Vector   vector.Options `yaml:"vector"`

	// Reasons 推荐理由规则，为空时使用 dsl.DefaultRules
	Reasons []dsl.Rule `yaml:"reasons"`

	// Tables 查表数据文件路径，为空时使用内置表
	Tables string `yaml:"tables"`
}

func DefaultConfig() Config {
	return Config{
		RequestedCount:   rerank.DefaultRequestedCount,
		DiversityFactor:  1,
		UseTitleInCorpus: true,
		FilterSameSeries: true,
		Weights:          rank.DefaultWeights(),
		MinScore:         rank.DefaultMinScore,
		Vector:           vector.DefaultOptions(),
	}
}

// LoadConfig 从 YAML 文件加载配置。
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig 在 DefaultConfig 之上解析 YAML 并校验。
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "parse yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查取值范围。
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
	}
	switch {
	case c.RequestedCount <= 0:
		return invalid("requested_count must be positive, got %d", c.RequestedCount)
	case c.DiversityFactor < 0 || c.DiversityFactor > 1:
		return invalid("diversity_factor must be in [0,1], got %v", c.DiversityFactor)
	case c.Randomness < 0 || c.Randomness > 1:
		return invalid("randomness must be in [0,1], got %v", c.Randomness)
	case c.MinScore < 0:
		return invalid("min_score must be non-negative, got %v", c.MinScore)
	case c.Vector.MaxDF < 0 || c.Vector.MaxDF > 1:
		return invalid("vector.max_df must be in [0,1], got %v", c.Vector.MaxDF)
	case c.Vector.MaxFeatures < 0 || c.Vector.SingleDocMaxFeatures < 0:
		return invalid("vector feature caps must be non-negative")
	}
	return nil
}
