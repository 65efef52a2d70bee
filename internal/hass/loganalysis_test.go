package hass

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeLogBuckets(t *testing.T) {
	text := strings.Join([]string{
		"2024-05-01 07:32:10.123 ERROR (MainThread) [homeassistant.components.zwave_js] Failed to connect to server",
		"2024-05-01 07:33:10.456 ERROR (MainThread) [homeassistant.components.zwave_js] Failed to connect to server",
		"2024-05-01 07:34:00.001 WARNING (MainThread) [homeassistant.components.met] Weather update delayed",
		"2024-05-01 07:35:00.001 INFO (MainThread) [homeassistant.setup] Setup failed for custom_thing",
		"not a log line at all",
	}, "\n")

	report := AnalyzeLog(text)
	require.True(t, report.Analyzed)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "zwave_js", report.Errors[0].Source)
	assert.Equal(t, 2, report.Errors[0].Count)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "met", report.Warnings[0].Source)

	require.Len(t, report.Notable, 1)
	assert.Contains(t, report.Notable[0].Message, "Setup failed")
}

func TestAnalyzeLogDedupeByPrefix(t *testing.T) {
	long := strings.Repeat("x", 90)
	text := fmt.Sprintf(
		"2024-05-01 07:00:00 ERROR (MainThread) [comp.a] %stail1\n2024-05-01 07:01:00 ERROR (MainThread) [comp.a] %stail2\n",
		long, long)

	report := AnalyzeLog(text)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Count)
}

func TestAnalyzeLogCaps(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "2024-05-01 07:00:%02d ERROR (MainThread) [comp.a] unique error number %d\n", i, i)
	}
	report := AnalyzeLog(b.String())
	assert.Len(t, report.Errors, maxLogErrors)
}

func TestExtractFailedAutomations(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	text := strings.Join([]string{
		// 2 hours ago: included.
		"2024-05-01 10:00:00 ERROR (MainThread) [homeassistant.components.automation] Error while executing automation automation.morning_lights: service not found",
		// 30 hours ago: excluded.
		"2024-04-30 06:00:00 ERROR (MainThread) [homeassistant.components.automation] Error while executing automation automation.old_failure: boom",
		// Duplicate of first automation: deduped.
		"2024-05-01 11:00:00 ERROR (MainThread) [homeassistant.components.automation] Error while executing automation automation.morning_lights: service not found",
	}, "\n")

	report := extractFailedAutomations(text, now)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "morning_lights", report.Failures[0].Name)
	assert.InDelta(t, 2.0, report.Failures[0].HoursAgo, 0.11)
}
