package detect

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The model is instructed to answer with bare JSON but routinely wraps it in
// markdown fences or commentary. Salvage is a prioritized chain of pure parse
// attempts; the first one that yields a valid object wins.
var (
	codeBlockRe = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

	// One-level-nested JSON object anywhere in the text.
	embeddedObjectRe = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// salvageJSON extracts the first parseable JSON object from raw model output.
// The boolean is false when no attempt produced a valid object.
func salvageJSON(text string) (map[string]any, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	attempts := []func(string) (map[string]any, bool){
		parseCodeBlock,
		parseEmbeddedObject,
		parseBraceSpan,
	}
	for _, attempt := range attempts {
		if obj, ok := attempt(text); ok {
			return obj, true
		}
	}
	return nil, false
}

// parseCodeBlock handles ```json { ... } ``` fences.
func parseCodeBlock(text string) (map[string]any, bool) {
	m := codeBlockRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return parseObject(m[1])
}

// parseEmbeddedObject finds a balanced object embedded in commentary.
func parseEmbeddedObject(text string) (map[string]any, bool) {
	m := embeddedObjectRe.FindString(text)
	if m == "" {
		return nil, false
	}
	return parseObject(m)
}

// parseBraceSpan is the last resort: everything between the first "{" and the
// last "}".
func parseBraceSpan(text string) (map[string]any, bool) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last <= first {
		return nil, false
	}
	return parseObject(text[first : last+1])
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
