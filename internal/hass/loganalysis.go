package hass

import (
	"bufio"
	"regexp"
	"strings"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

// Core log lines look like:
//
//	2024-05-01 07:32:10.123 ERROR (MainThread) [homeassistant.components.zwave_js] Failed to connect
var logLineRe = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})(?:\.\d+)? (ERROR|CRITICAL|WARNING|INFO) \([^)]*\) \[([^\]]+)\] (.+)$`)

const logTimeLayout = "2006-01-02 15:04:05"

const (
	maxLogErrors   = 10
	maxLogWarnings = 10
	maxLogNotable  = 5
	dedupePrefix   = 80
)

var notableRe = regexp.MustCompile(`(?i)setup failed|retrying|timeout|unavailable|deprecat`)

// AnalyzeLog parses the plain-text core error log into deduplicated,
// capped buckets. Duplicate messages are identified by the first 80
// characters of the normalized message.
func AnalyzeLog(text string) *model.LogReport {
	report := &model.LogReport{Analyzed: true}

	type bucket struct {
		entries *[]model.LogEntry
		seen    map[string]int
		cap     int
	}
	errorsB := bucket{&report.Errors, map[string]int{}, maxLogErrors}
	warningsB := bucket{&report.Warnings, map[string]int{}, maxLogWarnings}
	notableB := bucket{&report.Notable, map[string]int{}, maxLogNotable}

	add := func(b bucket, source, message string) {
		key := message
		if len(key) > dedupePrefix {
			key = key[:dedupePrefix]
		}
		if idx, ok := b.seen[key]; ok {
			(*b.entries)[idx].Count++
			return
		}
		if len(*b.entries) >= b.cap {
			return
		}
		b.seen[key] = len(*b.entries)
		*b.entries = append(*b.entries, model.LogEntry{
			Source:  shortSource(source),
			Message: message,
			Count:   1,
		})
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := logLineRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		level, source, message := m[2], m[3], normalizeMessage(m[4])
		switch level {
		case "ERROR", "CRITICAL":
			add(errorsB, source, message)
		case "WARNING":
			add(warningsB, source, message)
		default:
			if notableRe.MatchString(message) {
				add(notableB, source, message)
			}
		}
	}
	return report
}

var failedAutomationRe = regexp.MustCompile(
	`(?i)error (?:while executing|in) automation (?:automation\.)?([\w.]+)`)

// extractFailedAutomations scans error-level log lines for automation
// execution failures within the trailing 24 hours of now.
func extractFailedAutomations(text string, now time.Time) *model.FailedAutomationsReport {
	report := &model.FailedAutomationsReport{Failures: []model.AutomationFailure{}}
	seen := map[string]bool{}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := logLineRe.FindStringSubmatch(scanner.Text())
		if m == nil || (m[2] != "ERROR" && m[2] != "CRITICAL") {
			continue
		}
		fm := failedAutomationRe.FindStringSubmatch(m[4])
		if fm == nil {
			continue
		}
		ts, err := time.ParseInLocation(logTimeLayout, m[1], now.Location())
		if err != nil {
			continue
		}
		age := now.Sub(ts)
		if age < 0 || age > 24*time.Hour {
			continue
		}
		name := fm[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		report.Failures = append(report.Failures, model.AutomationFailure{
			Name:     name,
			Error:    normalizeMessage(m[4]),
			HoursAgo: float64(int(age.Hours()*10)) / 10,
		})
	}
	return report
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeMessage(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// shortSource trims the homeassistant prefix so prompt lines stay compact.
func shortSource(source string) string {
	source = strings.TrimPrefix(source, "homeassistant.components.")
	source = strings.TrimPrefix(source, "homeassistant.")
	return source
}
