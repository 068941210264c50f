package matcher

import (
	"fmt"
	"regexp"

	"github.com/patrickmn/go-cache"

	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
)

type compiledRegexp struct {
	re  *regexp.Regexp
	err error
}

type compiledTimeRange struct {
	tr  rule.TimeRange
	err error
}

// PatternCache memoizes compiled rule patterns for the length of one batch.
// Entries never expire and there is no janitor; drop the cache with the
// batch.
type PatternCache struct {
	items *cache.Cache
}

// NewPatternCache creates an empty cache
func NewPatternCache() *PatternCache {
	return &PatternCache{items: cache.New(cache.NoExpiration, 0)}
}

// Regexp returns the compiled pattern of a rule field. The second return
// value is true the first time a given entry is compiled.
func (c *PatternCache) Regexp(ruleID string, field rule.Field, pattern string) (*regexp.Regexp, bool, error) {
	key := fmt.Sprintf("%s#%s", ruleID, field)
	if v, ok := c.items.Get(key); ok {
		entry := v.(compiledRegexp)
		return entry.re, false, entry.err
	}

	re, err := regexp.Compile(pattern)
	c.items.Set(key, compiledRegexp{re: re, err: err}, cache.NoExpiration)
	return re, true, err
}

// TimeRange returns the parsed time pattern of a rule
func (c *PatternCache) TimeRange(ruleID string, pattern string) (rule.TimeRange, bool, error) {
	key := ruleID + "#time"
	if v, ok := c.items.Get(key); ok {
		entry := v.(compiledTimeRange)
		return entry.tr, false, entry.err
	}

	tr, err := rule.ParseTimeRange(pattern)
	c.items.Set(key, compiledTimeRange{tr: tr, err: err}, cache.NoExpiration)
	return tr, true, err
}

// Len returns the number of cached entries
func (c *PatternCache) Len() int {
	return c.items.ItemCount()
}
