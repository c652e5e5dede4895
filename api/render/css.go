package render

import (
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/layout"
)

// cssKeys are the style keys that map straight onto CSS properties. Other
// keys (gradientFrom, frontColor, ...) are read by the block renderers.
var cssKeys = map[string]bool{
	"padding": true, "margin": true, "color": true, "backgroundColor": true,
	"border": true, "borderRadius": true, "boxShadow": true, "opacity": true,
	"fontSize": true, "fontWeight": true, "fontFamily": true, "textAlign": true,
	"lineHeight": true, "textDecoration": true, "fontStyle": true, "display": true,
	"flexDirection": true, "gap": true, "alignItems": true, "justifyContent": true,
	"listStyle": true, "objectFit": true, "accentColor": true,
}

// pxKeys get a px unit when given as a bare number.
var pxKeys = map[string]bool{
	"padding": true, "margin": true, "borderRadius": true, "fontSize": true, "gap": true,
}

func kebab(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// cssValue formats v and refuses anything that could break out of a
// declaration.
func cssValue(key string, v any) (string, bool) {
	var s string
	switch n := v.(type) {
	case string:
		s = strings.TrimSpace(n)
	case bool:
		return "", false
	default:
		f, ok := elements.Style{key: v}.Number(key)
		if !ok {
			return "", false
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
		if pxKeys[key] {
			s += "px"
		}
	}
	if s == "" || strings.ContainsAny(s, ";{}<>\"'\\") {
		return "", false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "url(") || strings.Contains(lower, "expression") || strings.Contains(lower, "/*") {
		return "", false
	}
	return s, true
}

// StyleCSS renders the CSS-mappable part of a style map, keys sorted. With
// only, just those keys are considered.
func StyleCSS(style elements.Style, only ...string) string {
	keys := make([]string, 0, len(style))
	for k := range style {
		if cssKeys[k] {
			keys = append(keys, k)
		}
	}
	if len(only) > 0 {
		keys = keys[:0]
		for _, k := range only {
			if _, ok := style[k]; ok {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	var decls []string
	for _, k := range keys {
		if v, ok := cssValue(k, style[k]); ok {
			decls = append(decls, kebab(k)+":"+v)
		}
	}
	return strings.Join(decls, ";")
}

func px(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "px"
}

// BoxCSS places el absolutely at its canonical coordinates and size.
func BoxCSS(el elements.Element) string {
	size := layout.Size(el)
	return fmt.Sprintf("position:absolute;left:%s;top:%s;width:%s;height:%s;z-index:%d",
		px(el.Position.X), px(el.Position.Y), px(size.Width), px(size.Height), el.ZIndex)
}

// JoinCSS joins non-empty declaration lists.
func JoinCSS(parts ...string) template.CSS {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return template.CSS(strings.Join(out, ";"))
}

// HeroBackground resolves backgroundType into a CSS background declaration.
func HeroBackground(style elements.Style) string {
	switch style.String("backgroundType") {
	case "gradient":
		from, okFrom := cssValue("gradientFrom", style.String("gradientFrom"))
		to, okTo := cssValue("gradientTo", style.String("gradientTo"))
		if okFrom && okTo {
			return fmt.Sprintf("background:linear-gradient(135deg, %s, %s)", from, to)
		}
	case "image":
		if src := style.String("backgroundImage"); SafeURL(src) && !strings.ContainsAny(src, "()'\" \\") {
			return fmt.Sprintf("background:url(%s) center/cover no-repeat", src)
		}
	}
	if bg, ok := cssValue("backgroundColor", style.String("backgroundColor")); ok {
		return "background:" + bg
	}
	return "background:#4f46e5"
}
