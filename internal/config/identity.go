package config

import (
	"fmt"
	"os"
)

var envCacheKey = os.Getenv("LATEXRUN_CACHE_KEY")

// CacheKey derives the cache-key tag shared by every Worker a Harness
// boots. If LATEXRUN_CACHE_KEY is set it is used verbatim (useful for
// pinning two runs to the same daemon option cache); otherwise it falls
// back to "latexml_runner:<pid>", the default spec.md §3 names.
func CacheKey() string {
	if envCacheKey != "" {
		return envCacheKey
	}
	return fmt.Sprintf("latexml_runner:%d", os.Getpid())
}
