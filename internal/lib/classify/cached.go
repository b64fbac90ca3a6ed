package classify

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
)

// DefaultCacheTTL bounds how long a classification is reused for identical
// report text.
const DefaultCacheTTL = 24 * time.Hour

// CachedClassifier wraps a Classifier with content-based deduplication:
// the same report text (modulo whitespace and punctuation) is classified
// once per TTL window.
type CachedClassifier struct {
	inner  Classifier
	cache  ClassificationCache
	hasher *ContentHasher
	ttl    time.Duration
}

// NewCachedClassifier creates a classifier with content-based caching.
func NewCachedClassifier(inner Classifier, cache ClassificationCache, ttl time.Duration) *CachedClassifier {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClassifier{
		inner:  inner,
		cache:  cache,
		hasher: NewContentHasher(),
		ttl:    ttl,
	}
}

// Classify serves from cache when possible. Degraded safe-defaults are
// never cached: a later retry with connectivity restored should get a real
// classification.
func (c *CachedClassifier) Classify(ctx context.Context, text string) Result {
	contentHash := c.hasher.HashText(text)

	if cached, found := c.cache.GetClassification(contentHash); found {
		log.Printf("Classification cache hit for %s", contentHash[:8])
		return cached
	}

	result := c.inner.Classify(ctx, text)
	if result.Degraded {
		return result
	}

	if err := c.cache.SetClassification(contentHash, result, c.ttl); err != nil {
		log.Printf("Failed to cache classification %s: %v", contentHash[:8], err)
	}
	return result
}

// ContentHasher produces stable content hashes for report text.
type ContentHasher struct{}

// NewContentHasher creates a new content hasher.
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[.,;:!?()\-"']`)
)

// HashText hashes normalized report text, catching the same incident typed
// with minor variations.
func (h *ContentHasher) HashText(text string) string {
	normalized := strings.ToLower(text)
	normalized = punctuationRe.ReplaceAllString(normalized, "")
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}
