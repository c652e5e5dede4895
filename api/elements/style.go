package elements

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Style is the open presentation map of an element. Keys that are not part
// of a kind's schema are still carried through every merge.
type Style map[string]any

// Merge returns a new map with patch overlaid on s. Neither input is modified.
func (s Style) Merge(patch Style) Style {
	if s == nil && patch == nil {
		return nil
	}
	out := make(Style, len(s)+len(patch))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Number reads a numeric style value. Numbers and numeric strings such as
// "320" or "320px" are accepted; anything else reports false.
func (s Style) Number(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// String reads a style value as a string.
func (s Style) String(key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return strings.Trim(string(b), `"`)
	}
}

func (s Style) Width() (float64, bool)  { return s.Number("width") }
func (s Style) Height() (float64, bool) { return s.Number("height") }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "px"))
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

var commonStyleKeys = []string{
	"width", "height", "padding", "margin", "color", "backgroundColor",
	"border", "borderRadius", "boxShadow", "opacity", "fontSize", "fontWeight",
	"fontFamily", "textAlign", "lineHeight",
}

var kindStyleKeys = map[Kind][]string{
	KindText:      {"textDecoration", "fontStyle"},
	KindImage:     {"objectFit", "alt"},
	KindVideo:     {"controls", "autoplay"},
	KindContainer: {"display", "flexDirection", "gap", "alignItems", "justifyContent"},
	KindHero:      {"backgroundType", "backgroundImage", "gradientFrom", "gradientTo", "overlayOpacity"},
	KindList:      {"listStyle", "itemSpacing"},
	KindQuiz:      {"accentColor"},
	KindFlashcard: {"frontColor", "backColor"},
	KindResource:  {"iconColor"},
	KindComment:   {"accentColor"},
}

// StyleKeys lists the documented style keys for kind.
func StyleKeys(kind Kind) []string {
	out := append([]string{}, commonStyleKeys...)
	return append(out, kindStyleKeys[kind]...)
}

// CheckStyle returns the keys of style that fall outside kind's schema, sorted.
// Unknown keys are reported, never removed.
func CheckStyle(kind Kind, style Style) []string {
	allowed := make(map[string]bool)
	for _, k := range StyleKeys(kind) {
		allowed[k] = true
	}
	var unknown []string
	for k := range style {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}
