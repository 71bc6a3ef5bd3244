package catalogs

import "strings"

// ConfigString returns the trimmed string value for key from catalog.Config or a fallback.
func ConfigString(cfg Catalog, key, fallback string) string {
	if cfg.Config != nil {
		if raw, ok := cfg.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
)

// Headers builds the request headers from a catalog config (skips empty values).
func Headers(cfg Catalog) map[string]string {
	headers := make(map[string]string, 4)

	if v := ConfigString(cfg, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(cfg, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	if v := ConfigString(cfg, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}
	if v := ConfigString(cfg, ConfigCacheControlKey, ""); v != "" {
		headers["Cache-Control"] = v
	}
	return headers
}

// Selector returns the catalog's selector for key or fallback.
func Selector(cfg Catalog, key, fallback string) string {
	if v, ok := cfg.Selectors[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Field returns the catalog's source field name for key or fallback.
func Field(cfg Catalog, key, fallback string) string {
	if v, ok := cfg.Fields[key]; ok && v != "" {
		return v
	}
	return fallback
}
