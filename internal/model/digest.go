package model

// DigestContent is the structured payload the generation model must
// return and the only shape ever persisted in DigestRecord.Content.
type DigestContent struct {
	Summary        string          `json:"summary"`
	AttentionItems []AttentionItem `json:"attention_items,omitempty"`
	Observations   []Observation   `json:"observations,omitempty"`
	Housekeeping   []Housekeeping  `json:"housekeeping,omitempty"`
	Positives      []Positive      `json:"positives,omitempty"`
	Tip            *Tip            `json:"tip,omitempty"`
}

// AttentionItem is an active problem requiring user awareness.
type AttentionItem struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Severity     string        `json:"severity"` // "critical" | "warning" | "data_quality"
	DetailedInfo *DetailedInfo `json:"detailed_info,omitempty"`
}

// DetailedInfo expands an attention item for drill-down display.
type DetailedInfo struct {
	Explanation      string   `json:"explanation,omitempty"`
	AffectedEntities []string `json:"affected_entities,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
	Troubleshooting  string   `json:"troubleshooting,omitempty"`
}

// Observation is a new, changed, or genuinely interesting pattern.
type Observation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Trend       string `json:"trend,omitempty"` // "improving" | "stable" | "degrading" | "neutral"
	Actionable  bool   `json:"actionable"`
}

// Housekeeping is an observation demoted because it is unchanged from the
// prior digest or low-priority status quo.
type Housekeeping struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Positive is something working well.
type Positive struct {
	Text   string `json:"text"`
	Status string `json:"status,omitempty"` // "good" | "info" | "warning"
}

// Tip is the single, narrowly-scoped recommended action.
type Tip struct {
	Title  string `json:"title"`
	Action string `json:"action"`
}
