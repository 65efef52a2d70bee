package hass

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

// Supervisor responses wrap their payload in a data envelope.
type supervisorAddonsResponse struct {
	Data struct {
		Addons []struct {
			Name            string `json:"name"`
			Slug            string `json:"slug"`
			State           string `json:"state"`
			Boot            string `json:"boot"`
			Version         string `json:"version"`
			UpdateAvailable bool   `json:"update_available"`
		} `json:"addons"`
	} `json:"data"`
}

// AddonReport fetches Supervisor add-on state. Stopped add-ons set to
// auto-start are flagged; stopped manual add-ons are counted but not
// treated as problems.
func (c *Client) AddonReport(ctx context.Context) (*model.AddonReport, error) {
	var resp supervisorAddonsResponse
	if err := c.getJSON(ctx, c.supervisor, "/addons", &resp); err != nil {
		return nil, err
	}

	report := &model.AddonReport{Total: len(resp.Data.Addons)}
	for _, a := range resp.Data.Addons {
		info := model.AddonInfo{
			Name:            a.Name,
			Slug:            a.Slug,
			State:           a.State,
			Boot:            a.Boot,
			Version:         a.Version,
			UpdateAvailable: a.UpdateAvailable,
		}
		report.Addons = append(report.Addons, info)

		if a.State == "started" {
			report.Running++
		} else {
			report.Stopped++
			if a.Boot == "auto" {
				report.Issues = append(report.Issues, model.AddonIssue{
					Addon:    a.Name,
					Issue:    "stopped but configured to auto-start",
					Severity: "warning",
				})
			}
		}
		if a.UpdateAvailable {
			report.UpdateAvailable++
		}
	}
	return report, nil
}

const staleAutomationAge = 30 * 24 * time.Hour

// AutomationReport inspects automation entities. Enabled automations that
// have not triggered for 30+ days are reported as informational, not
// attention-worthy.
func (c *Client) AutomationReport(ctx context.Context) (*model.AutomationReport, error) {
	states, err := c.GetAllStates(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	report := &model.AutomationReport{}
	for i := range states {
		s := &states[i]
		if s.Domain() != "automation" {
			continue
		}
		report.Total++
		if s.State != "on" {
			report.Disabled++
			continue
		}
		report.Enabled++

		lastTriggered := s.StrAttr("last_triggered")
		if lastTriggered == "" {
			report.Issues = append(report.Issues, model.AutomationIssue{
				Name:     s.FriendlyName(),
				EntityID: s.EntityID,
				Issue:    "enabled but never triggered",
				Severity: "info",
			})
			continue
		}
		if ts, err := time.Parse(time.RFC3339, lastTriggered); err == nil && now.Sub(ts) >= staleAutomationAge {
			days := int(now.Sub(ts).Hours() / 24)
			report.Issues = append(report.Issues, model.AutomationIssue{
				Name:     s.FriendlyName(),
				EntityID: s.EntityID,
				Issue:    fmt.Sprintf("enabled but not triggered in %d days", days),
				Severity: "info",
			})
		}
	}
	return report, nil
}

type configEntry struct {
	Title  string `json:"title"`
	Domain string `json:"domain"`
	State  string `json:"state"`
	Reason string `json:"reason"`
}

// IntegrationReport lists config entries that are not loaded.
func (c *Client) IntegrationReport(ctx context.Context) (*model.IntegrationReport, error) {
	var entries []configEntry
	if err := c.getJSON(ctx, c.core, "/api/config/config_entries/entry", &entries); err != nil {
		return nil, err
	}

	report := &model.IntegrationReport{Total: len(entries)}
	for _, e := range entries {
		if e.State == "loaded" {
			continue
		}
		report.Failed++
		issue := e.State
		if e.Reason != "" {
			issue += ": " + e.Reason
		}
		report.Issues = append(report.Issues, model.IntegrationIssue{
			Name:   e.Title,
			Domain: e.Domain,
			Issue:  issue,
		})
	}
	return report, nil
}

// UpdateReport lists update.* entities whose state is "on".
func (c *Client) UpdateReport(ctx context.Context) (*model.UpdateReport, error) {
	states, err := c.GetAllStates(ctx)
	if err != nil {
		return nil, err
	}

	report := &model.UpdateReport{}
	for i := range states {
		s := &states[i]
		if s.Domain() != "update" || s.State != "on" {
			continue
		}
		report.Updates = append(report.Updates, model.UpdateInfo{
			Name:      s.FriendlyName(),
			Current:   s.StrAttr("installed_version"),
			Available: s.StrAttr("latest_version"),
		})
	}
	report.HasUpdates = len(report.Updates) > 0
	return report, nil
}

// LogReport fetches and analyzes the core error log.
func (c *Client) LogReport(ctx context.Context) (*model.LogReport, error) {
	text, err := c.ErrorLog(ctx)
	if err != nil {
		return nil, err
	}
	return AnalyzeLog(text), nil
}

// FailedAutomations scans the error log for automation execution errors in
// the trailing 24 hours.
func (c *Client) FailedAutomations(ctx context.Context, now time.Time) (*model.FailedAutomationsReport, error) {
	text, err := c.ErrorLog(ctx)
	if err != nil {
		return nil, err
	}
	report := extractFailedAutomations(text, now)
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].HoursAgo < report.Failures[j].HoursAgo
	})
	return report, nil
}
