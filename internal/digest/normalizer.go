package digest

import (
	"encoding/json"
	"strings"

	"github.com/homepulse/homepulse/internal/model"
)

const fallbackSummary = "Daily Digest generated"

// Normalize converts raw model output into validated digest content. It
// tolerates code fences, conversational filler around the JSON object, and
// truncation mid-structure. Already-valid JSON is never altered by the
// repair pass.
func Normalize(raw string) (*model.DigestContent, error) {
	candidate := Extract(raw)

	var content model.DigestContent
	if err := json.Unmarshal([]byte(candidate), &content); err != nil {
		repaired := Repair(candidate)
		if repairErr := json.Unmarshal([]byte(repaired), &content); repairErr != nil {
			return nil, &model.MalformedResponseError{Err: err, Preview: preview(raw)}
		}
	}

	if content.Summary == "" {
		content.Summary = fallbackSummary
	}
	return &content, nil
}

// Extract locates the JSON object inside arbitrary model output. Order:
// code-fence segmentation, first-brace slice, then a last-brace candidate
// parse that is only kept if it is already valid (handles trailing
// commentary after complete JSON without risking nested-brace cuts).
func Extract(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.Contains(text, "```") {
		for _, part := range strings.Split(text, "```") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "{") {
				text = part
				break
			}
			if len(part) >= 4 && strings.EqualFold(part[:4], "json") {
				text = strings.TrimSpace(part[4:])
				break
			}
		}
	}

	if i := strings.IndexByte(text, '{'); i > 0 {
		text = text[i:]
	} else if i < 0 {
		return text
	}

	if last := strings.LastIndexByte(text, '}'); last >= 0 {
		candidate := text[:last+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	return text
}

// Repair closes a truncated JSON object: close an open string, strip a
// dangling "key": with no value, strip trailing commas, then close any
// still-open structures in LIFO order.
func Repair(text string) string {
	repaired := strings.TrimSpace(text)

	if !strings.HasPrefix(repaired, "{") {
		if i := strings.IndexByte(repaired, '{'); i >= 0 {
			repaired = repaired[i:]
		}
	}
	if repaired == "" {
		return "{}"
	}

	inString := false
	escaped := false
	var stack []byte
	for i := 0; i < len(repaired); i++ {
		c := repaired[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				if c == '{' {
					stack = append(stack, '}')
				} else {
					stack = append(stack, ']')
				}
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		repaired += `"`
	}

	// Strip a dangling `"key":` left with no value.
	repaired = strings.TrimSpace(repaired)
	for strings.HasSuffix(repaired, ":") {
		repaired = strings.TrimSpace(repaired[:len(repaired)-1])
		if strings.HasSuffix(repaired, `"`) {
			j := len(repaired) - 2
			for j >= 0 && !(repaired[j] == '"' && (j == 0 || repaired[j-1] != '\\')) {
				j--
			}
			if j >= 0 {
				repaired = strings.TrimSpace(repaired[:j])
			}
		}
		repaired = strings.TrimSpace(repaired)
	}

	for strings.HasSuffix(repaired, ",") {
		repaired = strings.TrimSpace(repaired[:len(repaired)-1])
	}

	for len(stack) > 0 {
		closer := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		repaired = strings.TrimSpace(repaired)
		if strings.HasSuffix(repaired, ",") {
			repaired = strings.TrimSpace(repaired[:len(repaired)-1])
		}
		repaired += string(closer)
	}

	return repaired
}

func preview(raw string) string {
	const max = 300
	if len(raw) <= max {
		return raw
	}
	return raw[:max] + "..."
}
