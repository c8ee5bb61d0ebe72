package domain

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Video platforms recognised by ParseVideoURL.
const (
	PlatformYouTube = "youtube"
	PlatformTikTok  = "tiktok"
	PlatformVimeo   = "vimeo"
	PlatformDirect  = "direct"
	PlatformUnknown = "unknown"
)

// VideoInfo is best-effort embed metadata derived from a URL.
type VideoInfo struct {
	Platform string `json:"platform"`
	ID       string `json:"id,omitempty"`
	EmbedURL string `json:"embedUrl,omitempty"`
	URL      string `json:"url"`
}

var (
	youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
	tiktokID  = regexp.MustCompile(`/video/(\d+)`)
	vimeoID   = regexp.MustCompile(`^/(?:video/)?(\d+)`)

	directExtensions = map[string]struct{}{".mp4": {}, ".webm": {}, ".ogg": {}, ".mov": {}}
)

// ParseVideoURL recognises YouTube, TikTok, Vimeo and direct video file links.
// Anything else yields PlatformUnknown; the result is never an error.
func ParseVideoURL(raw string) VideoInfo {
	trimmed := strings.TrimSpace(raw)
	info := VideoInfo{Platform: PlatformUnknown, URL: trimmed}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return info
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case host == "youtu.be":
		return youtube(info, strings.Trim(parsed.Path, "/"))
	case host == "youtube.com" || host == "youtube-nocookie.com":
		if id := parsed.Query().Get("v"); id != "" {
			return youtube(info, id)
		}
		for _, marker := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(parsed.Path, marker) {
				id := strings.SplitN(strings.TrimPrefix(parsed.Path, marker), "/", 2)[0]
				return youtube(info, id)
			}
		}
	case strings.HasSuffix(host, "tiktok.com"):
		if m := tiktokID.FindStringSubmatch(parsed.Path); m != nil {
			info.Platform = PlatformTikTok
			info.ID = m[1]
			info.EmbedURL = "https://www.tiktok.com/embed/v2/" + m[1]
			return info
		}
	case host == "vimeo.com" || host == "player.vimeo.com":
		if m := vimeoID.FindStringSubmatch(parsed.Path); m != nil {
			info.Platform = PlatformVimeo
			info.ID = m[1]
			info.EmbedURL = "https://player.vimeo.com/video/" + m[1]
			return info
		}
	}

	if _, ok := directExtensions[strings.ToLower(path.Ext(parsed.Path))]; ok {
		info.Platform = PlatformDirect
		info.EmbedURL = trimmed
	}
	return info
}

func youtube(info VideoInfo, id string) VideoInfo {
	if !youtubeID.MatchString(id) {
		return info
	}
	info.Platform = PlatformYouTube
	info.ID = id
	info.EmbedURL = "https://www.youtube.com/embed/" + id
	return info
}
