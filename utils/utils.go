package utils

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pool of realistic desktop User-Agents. The passport API rejects obviously
// synthetic agents, so these mirror current browser builds.
var userAgents = []string{
	// Chrome - Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",

	// Chrome - Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",

	// Chrome - Linux
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",

	// Firefox
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/118.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/115.0",

	// Edge
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// GenerateRandomUserAgent returns a random User-Agent from the pool.
func GenerateRandomUserAgent() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return userAgents[r.Intn(len(userAgents))]
}

// GenerateBuvid returns a fresh value for the buvid3 cookie. The passport
// endpoints only require the cookie to be present, not to be a device id the
// server has seen before.
func GenerateBuvid() string {
	return uuid.New().String()
}

// GetTimestamp returns the current time in milliseconds as a string.
func GetTimestamp() string {
	return strconv.FormatInt(time.Now().UnixNano()/int64(time.Millisecond), 10)
}

// ParseCrossDomainQuery splits the query part of a passport cross-domain
// confirm URL into its key/value pairs. The URL looks like
//
//	https://passport.biligame.com/crossDomain?DedeUserID=...&SESSDATA=...&bili_jct=...
//
// Values are returned as-is, without URL decoding: SESSDATA values contain
// '%' escapes that the site expects to be sent back verbatim.
func ParseCrossDomainQuery(rawURL string) map[string]string {
	out := make(map[string]string)
	_, query, found := strings.Cut(rawURL, "?")
	if !found {
		return out
	}
	for _, pair := range strings.Split(query, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// CrossDomainValue looks up one parameter of a cross-domain confirm URL.
// DedeUserID is matched case-insensitively because the passport API has
// returned both spellings over time; everything else matches exactly.
func CrossDomainValue(rawURL, name string) string {
	params := ParseCrossDomainQuery(rawURL)
	if v, ok := params[name]; ok {
		return v
	}
	if strings.EqualFold(name, "DedeUserID") {
		for k, v := range params {
			if strings.EqualFold(k, name) {
				return v
			}
		}
	}
	return ""
}
