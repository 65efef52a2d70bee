package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningKey(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"High CPU usage on Add-on X!", "high_cpu_usage_on_addon_x"},
		{"Replace front door battery", "replace_front_door_battery"},
		{"Sensor   glitch:   stuck value?!", "sensor_glitch_stuck_value"},
		{"ALL CAPS TITLE", "all_caps_title"},
		{"", ""},
		{"123 numbers ok", "123_numbers_ok"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WarningKey(tc.title), "title %q", tc.title)
	}
}

func TestWarningKeyTruncatesAt50(t *testing.T) {
	long := "this is a very long warning title that keeps going and going and going"
	key := WarningKey(long)
	assert.Len(t, key, 50)
	assert.Equal(t, key, WarningKey(long), "must be deterministic")
}

func TestWarningKeyRoundTrip(t *testing.T) {
	// Dismissing by key derived from a title must match the key derived
	// again from the same title later.
	title := "Zigbee hub offline (3rd time)"
	assert.Equal(t, WarningKey(title), WarningKey(title))
	assert.Equal(t, "zigbee_hub_offline_3rd_time", WarningKey(title))
}
