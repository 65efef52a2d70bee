package digest

import (
	"fmt"
	"strings"

	"github.com/homepulse/homepulse/internal/model"
)

const (
	maxPromptAutomationIssues = 5
	maxPromptLogErrors        = 5
	maxPromptLogWarnings      = 5
)

// PromptInput carries everything the composer needs. Nil reports render as
// omitted sections; prompt assembly is deterministic and makes no model
// call.
type PromptInput struct {
	Type               model.DigestType
	Profile            model.Profile
	Entities           []*model.MonitoredEntity
	CategoryStats      []model.CategoryStat
	Rows               []model.AnalysisRow
	AddonReport        *model.AddonReport
	AutomationReport   *model.AutomationReport
	IntegrationReport  *model.IntegrationReport
	BatteryPredictions []model.BatteryPrediction
	LogReport          *model.LogReport
	UpdateReport       *model.UpdateReport
	FailedAutomations  *model.FailedAutomationsReport
	Dismissed          []*model.DismissedWarning
	UserNotes          string
	Previous           *model.DigestContent
}

// ComposePrompt assembles the analysis prompt. A window with zero
// snapshots switches to the first-run welcome branch.
func ComposePrompt(in PromptInput) string {
	firstRun := len(in.Rows) == 0
	entityLines, dataQuality := summarizeEntities(in.Rows)

	var b strings.Builder
	b.WriteString("You are a smart home health analyst for Home Assistant. Analyze the provided data and return a JSON object.\n")
	if firstRun {
		b.WriteString(firstRunInstructions)
	}

	b.WriteString("## Home Profile\n")
	writeProfileLine(&b, in.Profile, "occupants", "Occupants")
	writeProfileLine(&b, in.Profile, "schedule", "Schedule")
	writeProfileLine(&b, in.Profile, "priorities", "Priorities")
	if concerns := in.Profile.Field("concerns"); concerns != "" {
		fmt.Fprintf(&b, "- Concerns: %s\n", concerns)
	}

	fmt.Fprintf(&b, "\n## Entity Overview\nTotal monitored: %d entities across %d categories\n",
		len(in.Entities), len(in.CategoryStats))

	writeAddonSection(&b, in.AddonReport)
	writeAutomationSection(&b, in.AutomationReport)
	writeIntegrationSection(&b, in.IntegrationReport)
	writeBatterySection(&b, in.BatteryPredictions)
	writeLogSection(&b, in.LogReport)
	writeUpdateSection(&b, in.UpdateReport)
	writeFailedAutomationSection(&b, in.FailedAutomations)
	writeDataQualitySection(&b, dataQuality)
	writePreviousDigestSection(&b, in.Previous)

	fmt.Fprintf(&b, "\n## Data from %s\n", in.Type.PeriodLabel())
	if len(entityLines) > 0 {
		b.WriteString(strings.Join(entityLines, "\n"))
		b.WriteString("\n")
	} else {
		b.WriteString("No snapshot data available yet - this is expected for a new setup.\n")
	}

	b.WriteString(outputContract)
	b.WriteString(analysisGuidelines)

	if len(in.Dismissed) > 0 {
		b.WriteString("\n## DISMISSED WARNINGS - DO NOT INCLUDE THESE:\n")
		b.WriteString("The user has dismissed the following warnings. DO NOT include any attention_items with these titles or similar topics:\n")
		for _, d := range in.Dismissed {
			fmt.Fprintf(&b, "- %q\n", d.Title)
		}
	}

	if in.UserNotes != "" {
		b.WriteString("\n## USER PREFERENCES - TAKE THESE INTO ACCOUNT:\n")
		b.WriteString("The user has added personal notes to help you understand their preferences. Consider these when analyzing:\n")
		b.WriteString(in.UserNotes)
		b.WriteString("\n\nFor example, if a user notes \"I don't update AdGuard Home\", do NOT flag AdGuard updates as attention items.\n")
	}

	if firstRun {
		b.WriteString("\nSince this is the first run with no data yet, attention_items should be EMPTY and the tone should be welcoming.\n")
	}

	b.WriteString(closingInstruction)
	return b.String()
}

func writeProfileLine(b *strings.Builder, p model.Profile, key, label string) {
	if raw, ok := p[key]; ok && len(raw) > 0 {
		fmt.Fprintf(b, "- %s: %s\n", label, string(raw))
		return
	}
	fmt.Fprintf(b, "- %s: Not specified\n", label)
}

func writeAddonSection(b *strings.Builder, r *model.AddonReport) {
	if r == nil || r.Total == 0 {
		return
	}
	b.WriteString("\n## Add-on Status\n")
	fmt.Fprintf(b, "Total: %d add-ons (%d running, %d stopped)\n", r.Total, r.Running, r.Stopped)

	if unexpected := r.UnexpectedlyStopped(); len(unexpected) > 0 {
		fmt.Fprintf(b, "⚠️ Unexpectedly stopped (boot=auto): %s\n", joinAddonNames(unexpected))
	}
	if intentional := r.IntentionallyStopped(); len(intentional) > 0 {
		fmt.Fprintf(b, "Intentionally stopped (boot=manual): %s\n", joinAddonNames(intentional))
	}
	if r.UpdateAvailable > 0 {
		fmt.Fprintf(b, "Updates available: %d\n", r.UpdateAvailable)
	}
	// Auto-start issues are rendered above; skip them here.
	for _, issue := range r.Issues {
		if strings.Contains(issue.Issue, "auto-start") {
			continue
		}
		fmt.Fprintf(b, "- ⚠️ %s: %s\n", issue.Addon, issue.Issue)
	}
}

func joinAddonNames(addons []model.AddonInfo) string {
	names := make([]string, len(addons))
	for i, a := range addons {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func writeAutomationSection(b *strings.Builder, r *model.AutomationReport) {
	if r == nil || r.Total == 0 {
		return
	}
	b.WriteString("\n## Automation Health\n")
	fmt.Fprintf(b, "Total: %d automations (%d enabled, %d disabled)\n", r.Total, r.Enabled, r.Disabled)
	for i, issue := range r.Issues {
		if i >= maxPromptAutomationIssues {
			break
		}
		fmt.Fprintf(b, "- %s: %s\n", issue.Name, issue.Issue)
	}
}

func writeIntegrationSection(b *strings.Builder, r *model.IntegrationReport) {
	if r == nil || len(r.Issues) == 0 {
		return
	}
	b.WriteString("\n## Integration Issues\n")
	fmt.Fprintf(b, "%d of %d integrations have issues:\n", r.Failed, r.Total)
	for _, issue := range r.Issues {
		fmt.Fprintf(b, "- %s (%s): %s\n", issue.Name, issue.Domain, issue.Issue)
	}
}

func writeBatterySection(b *strings.Builder, predictions []model.BatteryPrediction) {
	if len(predictions) == 0 {
		return
	}
	b.WriteString("\n## Battery Predictions\n")
	for _, p := range predictions {
		warning := ""
		if p.NeedsAttention {
			warning = " ⚠️ NEEDS ATTENTION"
		}
		fmt.Fprintf(b, "- %s: %d%% (draining ~%.1f%%/day, ~%d days remaining)%s\n",
			p.FriendlyName, p.CurrentLevel, p.DrainRatePerDay, p.DaysRemaining, warning)
	}
}

func writeLogSection(b *strings.Builder, r *model.LogReport) {
	if r == nil || !r.Analyzed {
		return
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		b.WriteString("\n## Logs\nLog analysis complete. No critical errors or warnings found in the recent logs.\n")
		return
	}
	b.WriteString("\n## Recent Log Issues\n")
	if len(r.Errors) > 0 {
		fmt.Fprintf(b, "### Recent Errors (%d)\n", len(r.Errors))
		for i, e := range r.Errors {
			if i >= maxPromptLogErrors {
				break
			}
			fmt.Fprintf(b, "- [%s] %s\n", e.Source, e.Message)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(b, "### Recent Warnings (%d)\n", len(r.Warnings))
		for i, w := range r.Warnings {
			if i >= maxPromptLogWarnings {
				break
			}
			fmt.Fprintf(b, "- [%s] %s\n", w.Source, w.Message)
		}
	}
}

func writeUpdateSection(b *strings.Builder, r *model.UpdateReport) {
	if r == nil || !r.HasUpdates {
		return
	}
	b.WriteString("\n## Available Updates\n")
	for _, u := range r.Updates {
		if u.Current != "" && u.Available != "" {
			fmt.Fprintf(b, "- %s: %s -> %s\n", u.Name, u.Current, u.Available)
		} else {
			fmt.Fprintf(b, "- %s\n", u.Name)
		}
	}
}

func writeFailedAutomationSection(b *strings.Builder, r *model.FailedAutomationsReport) {
	if r == nil || len(r.Failures) == 0 {
		return
	}
	b.WriteString("\n## Failed Automations (Last 24h)\nThe following automations triggered but encountered errors:\n")
	for _, f := range r.Failures {
		fmt.Fprintf(b, "- %s: Failed %.1fh ago - %s\n", f.Name, f.HoursAgo, f.Error)
	}
}

func writeDataQualitySection(b *strings.Builder, issues []DataQualityIssue) {
	if len(issues) == 0 {
		return
	}
	b.WriteString("\n## Potential Data Quality Issues\nThese values appear to be statistical outliers and may indicate sensor glitches:\n")
	for _, dq := range issues {
		fmt.Fprintf(b, "- %s (%s): %s\n", dq.Entity, dq.EntityID, dq.Issue)
	}
	b.WriteString("Use severity \"data_quality\" for these, not \"warning\" or \"critical\".\n")
}

func writePreviousDigestSection(b *strings.Builder, prev *model.DigestContent) {
	if prev == nil || (len(prev.Observations) == 0 && len(prev.AttentionItems) == 0) {
		return
	}
	b.WriteString("\n## Previous Digest (Yesterday)\nHere is what you reported yesterday:\n")

	if len(prev.AttentionItems) > 0 {
		titles := make([]string, len(prev.AttentionItems))
		for i, item := range prev.AttentionItems {
			titles[i] = item.Title
		}
		fmt.Fprintf(b, "- **Previous Attention Items**: %s\n", strings.Join(titles, ", "))
	}
	if len(prev.Observations) > 0 {
		b.WriteString("- **Previous Observations**:\n")
		for _, o := range prev.Observations {
			fmt.Fprintf(b, "  - %q: %s\n", o.Title, o.Description)
		}
	}
	b.WriteString(`
USE THIS TO REDUCE NOISE:
- If an observation is exactly the same as yesterday and hasn't worsened, move it to "housekeeping".
- If an issue persists but isn't critical, consider if it's "stable".
`)
}

const firstRunInstructions = `
## IMPORTANT: First Run Scenario
This is the user's FIRST digest - they just set up the system. There is no snapshot data yet because data collection just started.

DO NOT treat this as an error or critical issue. Instead:
- Be welcoming and congratulate them on setting up
- Explain that data collection has begun and meaningful analysis will be available in the next digest
- Focus on the positive aspects of their setup (entities discovered, profile configured)
- Give a helpful tip about what to expect

The summary should be encouraging, like: "Welcome! Your smart home monitoring is now active. Check back tomorrow for your first full health report."
`

const outputContract = `
## Your Task
Analyze the data and return a JSON object with the following structure:

{
  "summary": "A concise one-sentence summary of the home's health.",
  "attention_items": [
    {
      "title": "Short title of issue",
      "description": "Brief explanation of why this is a concern (1-2 sentences).",
      "severity": "critical" | "warning" | "data_quality",
      "detailed_info": {
        "explanation": "Detailed explanation of the issue.",
        "affected_entities": ["entity.id_1", "entity.id_2"],
        "suggestions": ["Specific actionable suggestion 1", "Suggestion 2"],
        "troubleshooting": "Troubleshooting steps if applicable."
      }
    }
  ],
  "observations": [
    {
      "title": "Observation Title",
      "description": "Interesting pattern, trend, or anomaly noticed in the data.",
      "trend": "improving" | "stable" | "degrading" | "neutral",
      "actionable": true | false
    }
  ],
  "housekeeping": [
    {
      "title": "Observation Title",
      "description": "Observation that is stable/unchanged from yesterday or low-priority status quo."
    }
  ],
  "positives": [
    {
      "text": "Specific thing working well or system status",
      "status": "good" | "info" | "warning"
    }
  ],
  "tip": {
    "title": "Short tip headline (max 10 words)",
    "action": "One concise sentence explaining what to do and why"
  }
}
`

const analysisGuidelines = `
## Guidelines for Analysis

### Attention Items
- Focus on ACTIVE problems, errors, or critical thresholds that need user action
- Use "critical" for immediate risks (data loss, safety, system down)
- Use "warning" for issues that need attention but aren't urgent
- Use "data_quality" for sensor anomalies or reporting glitches (e.g., impossibly high values, stuck sensors)

### Observations vs Housekeeping - REDUCE NOISE
1. **Observations**: Include items that are NEW, CHANGED, or genuinely INTERESTING anomalies. High signal-to-noise ratio.
2. **Housekeeping**: Move everything else here.
    - If an observation appeared in the "Previous Digest" and the state hasn't meaningfully changed, put it in 'housekeeping'.
    - If a sensor "rarely triggers" and that is the status quo, put it in 'housekeeping'.
    - If a state is "stable" and "expected", put it in 'housekeeping'.

### Stopped Add-ons
- Add-ons with boot=auto that are stopped are UNEXPECTED and should be flagged as attention items
- Add-ons with boot=manual that are stopped are INTENTIONAL - do not treat as problems
- Only mention intentionally stopped add-ons in positives if relevant (e.g., "X stopped add-ons are intentionally disabled")

### Tip - ONE CONCISE ACTION
The tip MUST be:
- **Brief**: Title max 10 words, action max 2 sentences
- **Singular**: One tip only, not a list of entities
- **Specific**: Reference ONE exact entity or action, not groups
- **Actionable**: User can do it today

Good examples:
- Title: "Replace front door battery", Action: "At 15%, it will die within a week."
- Title: "Remove stale garage sensor", Action: "sensor.old_thermostat hasn't reported in 7 days."

Bad examples:
- Listing multiple entities: "Remove sensor.a, sensor.b, sensor.c..." (pick ONE)
- Generic advice: "Consider removing unused entities" (too vague)
- Long explanations with repeated information
`

const closingInstruction = `
## IMPORTANT: Keep your internal reasoning/thoughts extremely brief to ensure the JSON response is not truncated. Do NOT include markdown formatting or conversational filler in the JSON output. Return ONLY the raw JSON object starting with { and ending with }.`
