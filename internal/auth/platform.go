package auth

import (
	"strings"
	"unicode"
)

// Platform classifies the client that made a request. Refresh tokens are
// stored per (user, platform).
type Platform string

const (
	PlatformIOS     Platform = "iOS"
	PlatformAndroid Platform = "Android"
	PlatformWeb     Platform = "Web"
	PlatformUnknown Platform = "unknown"
)

func (p Platform) String() string { return string(p) }

// Markers are whole User-Agent tokens, checked in order: mobile user agents
// usually also carry browser tokens such as "Mozilla" or "Safari".
var platformMarkers = []struct {
	platform Platform
	markers  []string
}{
	{PlatformIOS, []string{"iphone", "ipad", "ipod", "ios"}},
	{PlatformAndroid, []string{"android", "okhttp", "dalvik"}},
	{PlatformWeb, []string{"mozilla", "chrome", "safari", "firefox", "edg", "opera", "msie", "trident"}},
}

// Native Apple HTTP stacks send CFNetwork and Darwin without naming the
// device. They count as iOS unless the agent also names a Mac.
var (
	appleNativeMarkers = []string{"cfnetwork", "darwin"}
	macMarkers         = []string{"macintosh", "macos", "mac", "osx"}
)

// DetectPlatform maps a User-Agent header to a Platform. It never fails;
// anything unrecognised is PlatformUnknown.
func DetectPlatform(userAgent string) Platform {
	tokens := uaTokens(userAgent)
	if len(tokens) == 0 {
		return PlatformUnknown
	}
	for _, entry := range platformMarkers {
		if tokens.hasAny(entry.markers) {
			return entry.platform
		}
	}
	if tokens.hasAny(appleNativeMarkers) && !tokens.hasAny(macMarkers) {
		return PlatformIOS
	}
	return PlatformUnknown
}

type tokenSet map[string]struct{}

func (t tokenSet) hasAny(words []string) bool {
	for _, w := range words {
		if _, ok := t[w]; ok {
			return true
		}
	}
	return false
}

// uaTokens splits a User-Agent into lowercase runs of letters and digits.
func uaTokens(userAgent string) tokenSet {
	fields := strings.FieldsFunc(strings.ToLower(userAgent), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(tokenSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
