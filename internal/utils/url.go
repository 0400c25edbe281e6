package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL          = errors.New("empty url")
	ErrMissingHost       = errors.New("missing host")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// captureSchemes are the schemes a browser can be pointed at for a capture.
var captureSchemes = map[string]bool{"http": true, "https": true, "file": true}

// ParseTarget validates a capture target: absolute, with a scheme the browser
// can load and, for http(s), a host.
func ParseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse url %s: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if !captureSchemes[scheme] {
		return nil, fmt.Errorf("%w %q in %s", ErrUnsupportedScheme, u.Scheme, raw)
	}
	if scheme != "file" && u.Host == "" {
		return nil, fmt.Errorf("%w in %s", ErrMissingHost, raw)
	}
	return u, nil
}

// Tracking parameters dropped during canonicalization.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// Canonicalize maps equivalent spellings of a URL onto one string so that
// captures of the same page can be grouped. Scheme and host are lowercased,
// IDN hosts punycoded, default ports, credentials, fragments and tracking
// parameters dropped, the path cleaned without a trailing slash, and the
// query sorted.
func Canonicalize(raw string) (string, error) {
	u, err := ParseTarget(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	switch port := u.Port(); {
	case port == "",
		u.Scheme == "http" && port == "80",
		u.Scheme == "https" && port == "443":
		u.Host = host
	default:
		u.Host = net.JoinHostPort(host, port)
	}

	p := path.Clean("/" + u.Path)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	u.Path = p
	u.RawPath = ""

	q := u.Query()
	for k := range q {
		if _, ok := trackingParams[strings.ToLower(k)]; ok {
			q.Del(k)
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		vals := q[k]
		sort.Strings(vals)
		for _, v := range vals {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}
