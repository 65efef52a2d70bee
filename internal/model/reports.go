package model

// Health report variants, one per collector. Each collector is an
// independent fallible fetch; a nil report means the section is omitted
// from the digest prompt.

// AddonInfo describes one Supervisor add-on.
type AddonInfo struct {
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	State           string `json:"state"`
	Boot            string `json:"boot"` // "auto" or "manual"
	Version         string `json:"version"`
	UpdateAvailable bool   `json:"update_available"`
}

// AddonIssue is a flagged add-on problem.
type AddonIssue struct {
	Addon    string `json:"addon"`
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
}

// AddonReport summarizes add-on health. Stopped add-ons with boot=auto are
// unexpected; stopped with boot=manual are intentional. The two are never
// conflated.
type AddonReport struct {
	Total           int          `json:"total"`
	Running         int          `json:"running"`
	Stopped         int          `json:"stopped"`
	UpdateAvailable int          `json:"updateAvailable"`
	Addons          []AddonInfo  `json:"addons"`
	Issues          []AddonIssue `json:"issues"`
}

// UnexpectedlyStopped returns stopped add-ons set to auto-start.
func (r *AddonReport) UnexpectedlyStopped() []AddonInfo {
	var out []AddonInfo
	for _, a := range r.Addons {
		if a.State != "started" && a.Boot == "auto" {
			out = append(out, a)
		}
	}
	return out
}

// IntentionallyStopped returns stopped add-ons set to manual start.
func (r *AddonReport) IntentionallyStopped() []AddonInfo {
	var out []AddonInfo
	for _, a := range r.Addons {
		if a.State != "started" && a.Boot == "manual" {
			out = append(out, a)
		}
	}
	return out
}

// AutomationIssue is an informational or attention-worthy automation note.
type AutomationIssue struct {
	Name     string `json:"name"`
	EntityID string `json:"entityId"`
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
}

// AutomationReport summarizes automation health.
type AutomationReport struct {
	Total    int               `json:"total"`
	Enabled  int               `json:"enabled"`
	Disabled int               `json:"disabled"`
	Issues   []AutomationIssue `json:"issues"`
}

// IntegrationIssue is one failed config entry.
type IntegrationIssue struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Issue  string `json:"issue"`
}

// IntegrationReport summarizes integration (config entry) health.
type IntegrationReport struct {
	Total  int                `json:"total"`
	Failed int                `json:"failed"`
	Issues []IntegrationIssue `json:"issues"`
}

// LogEntry is one deduplicated log line bucketized by the analyzer.
type LogEntry struct {
	Source  string `json:"source"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// LogReport summarizes the recent error log. Buckets are capped (10
// errors, 10 warnings, 5 notable) to bound prompt size.
type LogReport struct {
	Analyzed bool       `json:"analyzed"`
	Errors   []LogEntry `json:"errors"`
	Warnings []LogEntry `json:"warnings"`
	Notable  []LogEntry `json:"notable"`
}

// UpdateInfo is one pending update.
type UpdateInfo struct {
	Name      string `json:"name"`
	Current   string `json:"current,omitempty"`
	Available string `json:"available,omitempty"`
}

// UpdateReport lists pending updates.
type UpdateReport struct {
	HasUpdates bool         `json:"hasUpdates"`
	Updates    []UpdateInfo `json:"updates"`
}

// AutomationFailure is one automation that triggered but errored.
type AutomationFailure struct {
	Name     string  `json:"name"`
	Error    string  `json:"error"`
	HoursAgo float64 `json:"hours_ago"`
}

// FailedAutomationsReport lists automations that errored in the trailing
// 24 hours.
type FailedAutomationsReport struct {
	Failures []AutomationFailure `json:"failures"`
}

// BatteryPrediction is one battery entity's projected depletion, from the
// linear-regression drain model.
type BatteryPrediction struct {
	EntityID        string  `json:"entity_id"`
	FriendlyName    string  `json:"friendly_name"`
	CurrentLevel    int     `json:"current_level"`
	DrainRatePerDay float64 `json:"drain_rate_per_day"`
	DaysRemaining   int     `json:"days_remaining"`
	DataPoints      int     `json:"data_points"`
	NeedsAttention  bool    `json:"needs_attention"`
}
