package core

// Signals 是混合打分的四路信号。
type Signals struct {
	Textual    float64 `json:"textual"`
	Author     float64 `json:"author"`
	Genre      float64 `json:"genre"`
	Popularity float64 `json:"popularity"`
}

// Candidate 是推荐链路中的统一承载结构。
// Index 是该书在语料中的位置（0..ownedCount-1 为已拥有的书），
// 下游所有阶段都按 Index 对齐，不按身份查找。
type Candidate struct {
	Index      int
	Book       BookRecord
	Similarity float64
	Category   string
	SeriesKey  string
	Hybrid     float64
	Signals    Signals
	Reason     string
	Labels     map[string]Label
}

func NewCandidate(index int, book BookRecord, similarity float64) *Candidate {
	return &Candidate{
		Index:      index,
		Book:       book,
		Similarity: similarity,
		Labels:     make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按 MergeLabel 累积。
func (c *Candidate) PutLabel(key string, lbl Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// Label 读取 Label。
func (c *Candidate) Label(key string) (Label, bool) {
	if c.Labels == nil {
		return Label{}, false
	}
	lbl, ok := c.Labels[key]
	return lbl, ok
}
