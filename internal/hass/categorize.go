package hass

import "strings"

var domainCategories = map[string]string{
	"climate":             "climate",
	"weather":             "climate",
	"humidifier":          "climate",
	"fan":                 "climate",
	"water_heater":        "climate",
	"light":               "lighting",
	"switch":              "controls",
	"input_boolean":       "controls",
	"button":              "controls",
	"cover":               "controls",
	"lock":                "security",
	"alarm_control_panel": "security",
	"camera":              "security",
	"media_player":        "media",
	"vacuum":              "appliances",
	"device_tracker":      "presence",
	"person":              "presence",
	"automation":          "system",
	"script":              "system",
	"scene":               "system",
	"zone":                "system",
	"input_number":        "system",
	"input_text":          "system",
	"input_select":        "system",
	"input_datetime":      "system",
	"timer":               "system",
	"counter":             "system",
	"group":               "system",
	"sun":                 "environment",
	"moon":                "environment",
}

var binarySensorCategories = map[string]string{
	"door": "security", "window": "security", "motion": "security",
	"occupancy": "security", "lock": "security", "safety": "security",
	"tamper": "security", "smoke": "security", "gas": "security",
	"carbon_monoxide": "security",
	"cold":            "climate", "heat": "climate", "moisture": "climate",
	"humidity": "climate",
	"battery":  "energy", "battery_charging": "energy", "plug": "energy",
	"power": "energy",
}

var sensorCategories = map[string]string{
	"temperature": "climate", "humidity": "climate", "pressure": "climate",
	"atmospheric_pressure": "climate",
	"energy":               "energy", "power": "energy", "power_factor": "energy",
	"voltage": "energy", "current": "energy", "battery": "energy",
}

// Categorize maps an entity to a digest category based on its domain and
// device class.
func Categorize(s *EntityState) string {
	domain := s.Domain()
	switch domain {
	case "binary_sensor":
		if cat, ok := binarySensorCategories[s.StrAttr("device_class")]; ok {
			return cat
		}
		return "sensors"
	case "sensor":
		if cat, ok := sensorCategories[s.StrAttr("device_class")]; ok {
			return cat
		}
		switch s.StrAttr("unit_of_measurement") {
		case "kWh", "W", "Wh":
			return "energy"
		case "°C", "°F":
			return "climate"
		}
		return "sensors"
	}
	if cat, ok := domainCategories[domain]; ok {
		return cat
	}
	return "other"
}

// DeterminePriority assigns the default monitoring priority for a newly
// discovered entity. Users can override it afterwards.
func DeterminePriority(s *EntityState, category string) string {
	if category == "security" {
		return "critical"
	}
	switch s.StrAttr("device_class") {
	case "smoke", "gas", "carbon_monoxide":
		return "critical"
	}
	if category == "system" {
		return "low"
	}
	domain := s.Domain()
	if strings.HasPrefix(domain, "input_") || domain == "automation" || domain == "script" {
		return "ignore"
	}
	return "normal"
}
