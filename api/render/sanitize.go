package render

import (
	"html/template"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "br": true, "b": true, "strong": true, "i": true, "em": true,
	"u": true, "s": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"ul": true, "ol": true, "li": true, "span": true, "a": true,
	"blockquote": true, "code": true, "pre": true,
}

// dropped along with everything inside them
var skippedTags = map[string]bool{"script": true, "style": true, "iframe": true, "object": true, "template": true}

// RichText keeps the formatting tags of authored rich text and drops every
// attribute except safe link targets.
func RichText(fragment string) template.HTML {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return template.HTML(b.String())
		}
		tok := z.Token()
		name := tok.Data

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if skippedTags[name] {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip > 0 || !allowedTags[name] {
				continue
			}
			b.WriteString("<" + name)
			if name == "a" {
				if href := safeHref(tok.Attr); href != "" {
					b.WriteString(` href="` + html.EscapeString(href) + `" target="_blank" rel="noopener"`)
				}
			}
			b.WriteString(">")
		case html.EndTagToken:
			if skippedTags[name] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip > 0 || !allowedTags[name] || name == "br" {
				continue
			}
			b.WriteString("</" + name + ">")
		case html.TextToken:
			if skip == 0 {
				b.WriteString(html.EscapeString(tok.Data))
			}
		}
	}
}

func safeHref(attrs []html.Attribute) string {
	for _, a := range attrs {
		if a.Key != "href" {
			continue
		}
		if SafeURL(a.Val) {
			return a.Val
		}
	}
	return ""
}

// SafeURL reports whether raw is an absolute http(s) or mailto link.
func SafeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return true
	}
	return false
}
