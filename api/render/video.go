package render

import (
	"net/url"
	"regexp"
	"strings"
)

type VideoKind string

const (
	VideoNone    VideoKind = "none"
	VideoYouTube VideoKind = "youtube"
	VideoVimeo   VideoKind = "vimeo"
	VideoEmbed   VideoKind = "embed"
	VideoDirect  VideoKind = "direct"
)

// VideoSource says how a video block is played. Embedded players cannot be
// paused by the page, so only direct sources are gated.
type VideoSource struct {
	Kind VideoKind `json:"kind"`
	URL  string    `json:"url"`
}

func (v VideoSource) Embed() bool {
	return v.Kind == VideoYouTube || v.Kind == VideoVimeo || v.Kind == VideoEmbed
}

func (v VideoSource) Gated() bool { return v.Kind == VideoDirect }

var (
	youTubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
	vimeoID   = regexp.MustCompile(`^/(\d+)`)
)

// ClassifyVideo recognises YouTube and Vimeo page URLs and rewrites them to
// their embeddable form. URLs that already point at an embed player pass
// through; anything else is treated as a direct media file.
func ClassifyVideo(raw string) VideoSource {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return VideoSource{Kind: VideoNone}
	}
	if strings.Contains(raw, "/embed/") || strings.Contains(raw, "player.vimeo.com") {
		return VideoSource{Kind: VideoEmbed, URL: raw}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return VideoSource{Kind: VideoDirect, URL: raw}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtube.com":
		id := u.Query().Get("v")
		if strings.HasPrefix(u.Path, "/shorts/") {
			id = strings.TrimPrefix(u.Path, "/shorts/")
		}
		if youTubeID.MatchString(id) {
			return VideoSource{Kind: VideoYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if youTubeID.MatchString(id) {
			return VideoSource{Kind: VideoYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "vimeo.com":
		if m := vimeoID.FindStringSubmatch(u.Path); m != nil {
			return VideoSource{Kind: VideoVimeo, URL: "https://player.vimeo.com/video/" + m[1]}
		}
	}
	return VideoSource{Kind: VideoDirect, URL: raw}
}
