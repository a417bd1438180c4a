package warming

import "net/http"

// HeaderProfile builds the identifying headers attached to every warming
// request. Providers differ in how a probe names its intended edge, so the
// exact set is configurable; the country/edge values are simulated routing
// hints and do not guarantee which edge actually serves the request.
type HeaderProfile struct {
	UserAgent string
	// Base headers sent on every request, e.g. Cache-Control: no-cache.
	Base map[string]string
	// CountryHeader/Country name the simulated client country, when set.
	CountryHeader string
	Country       string
	// EdgeHeader, when set, carries the target location code.
	EdgeHeader string
}

// Headers materializes the header set for one edge location.
func (p HeaderProfile) Headers(loc EdgeLocation) http.Header {
	h := make(http.Header, len(p.Base)+3)
	if p.UserAgent != "" {
		h.Set("User-Agent", p.UserAgent)
	}
	for k, v := range p.Base {
		h.Set(k, v)
	}
	if p.CountryHeader != "" && p.Country != "" {
		h.Set(p.CountryHeader, p.Country)
	}
	if p.EdgeHeader != "" {
		h.Set(p.EdgeHeader, loc.Code)
	}
	return h
}

// CloudflareProfile simulates Australian Cloudflare edge routing.
func CloudflareProfile(userAgent string) HeaderProfile {
	return HeaderProfile{
		UserAgent: userAgent,
		Base: map[string]string{
			"Accept":        "text/html,application/xhtml+xml,application/xml",
			"Cache-Control": "no-cache",
		},
		CountryHeader: "CF-IPCountry",
		Country:       "AU",
		EdgeHeader:    "CF-RAY",
	}
}

// BunnyProfile sends the plain cache-bypass set used against BunnyCDN.
func BunnyProfile(userAgent string) HeaderProfile {
	return HeaderProfile{
		UserAgent: userAgent,
		Base: map[string]string{
			"Cache-Control": "no-cache",
		},
	}
}

// ProfileByProvider resolves the built-in profile for a provider name and
// merges any extra configured headers into its base set.
func ProfileByProvider(provider, userAgent string, extra map[string]string) HeaderProfile {
	var p HeaderProfile
	switch provider {
	case "bunny":
		p = BunnyProfile(userAgent)
	default:
		p = CloudflareProfile(userAgent)
	}
	for k, v := range extra {
		p.Base[k] = v
	}
	return p
}
