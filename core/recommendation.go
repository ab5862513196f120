package core

// Recommendation 是对外输出的推荐记录。
type Recommendation struct {
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Description     string   `json:"description"`
	Image           string   `json:"image"`
	Rating          float64  `json:"rating"`
	ExternalID      string   `json:"externalId"`
	SimilarityScore float64  `json:"similarityScore"`
	HybridScore     float64  `json:"hybridScore"`
	Category        string   `json:"category"`
	Reason          string   `json:"reason"`
	SignalBreakdown Signals  `json:"signalBreakdown"`
}

// FeatureWeight 是画像中的一个特征词及其权重。
type FeatureWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// NormalizedSample 是一本已拥有书的规范化文本，用于排查语料质量。
type NormalizedSample struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Analysis 是一次向量化过程的诊断信息。
type Analysis struct {
	CorpusSize     int                `json:"corpusSize"`
	VocabularySize int                `json:"vocabularySize"`
	SpaceMode      string             `json:"spaceMode"`
	ProfileDims    int                `json:"profileDims"`
	MatchedOwned   int                `json:"matchedOwned"`
	TopFeatures    []FeatureWeight    `json:"topFeatures"`
	OwnedSamples   []NormalizedSample `json:"ownedSamples"`
	ZeroScoreCount int                `json:"zeroScoreCount"`
	HighScoreCount int                `json:"highScoreCount"`
}
