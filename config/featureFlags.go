package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

func stringFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// ScratchDir is the parent of every per-request scratch directory.
//
// Set via env:
// - DOCGEN_SCRATCH_DIR (default: os.TempDir())
func ScratchDir() string {
	return stringFromEnv("DOCGEN_SCRATCH_DIR", os.TempDir())
}

// SofficeBinary is the LibreOffice executable used to derive PDFs from XLSX.
func SofficeBinary() string {
	return stringFromEnv("SOFFICE_BIN", "soffice")
}

// ChromeBinary is an optional explicit path for the headless browser.
// Empty means chromedp looks the browser up on PATH.
func ChromeBinary() string {
	return stringFromEnv("CHROME_BIN", "")
}

// ConversionTimeout bounds a single external conversion call.
func ConversionTimeout() time.Duration {
	return time.Duration(intFromEnv("DOCGEN_CONVERSION_TIMEOUT_SECONDS", 120)) * time.Second
}

// ResolverCacheTTL is how long a resolved meeting/company stays cached in Redis.
// A cached record can outlive its deactivation by up to this long, so caching
// is off unless RESOLVER_CACHE_TTL_SECONDS is set.
func ResolverCacheTTL() time.Duration {
	return time.Duration(intFromEnv("RESOLVER_CACHE_TTL_SECONDS", 0)) * time.Second
}

// SignedURLTTL is the lifetime of artifact download links.
func SignedURLTTL() time.Duration {
	return time.Duration(intFromEnv("SIGNED_URL_TTL_SECONDS", 900)) * time.Second
}

// DocumentKindsFile points to the optional YAML policy file.
func DocumentKindsFile() string {
	return stringFromEnv("DOCUMENT_KINDS_FILE", "")
}

// LetterheadLogoPath points to an optional logo printed on every document.
func LetterheadLogoPath() string {
	return stringFromEnv("LETTERHEAD_LOGO_PATH", "")
}

// WatchDocumentKinds enables hot reload of DOCUMENT_KINDS_FILE.
func WatchDocumentKinds() bool {
	return boolFromEnv("DOCUMENT_KINDS_WATCH", true)
}

// AgencyName is printed in letter closings and headers.
func AgencyName() string {
	return stringFromEnv("AGENCY_NAME", "Rating Committee Secretariat")
}

// DisplayTimezone is the zone meeting times are printed in.
func DisplayTimezone() string {
	return stringFromEnv("DISPLAY_TIMEZONE", "Asia/Kolkata")
}
