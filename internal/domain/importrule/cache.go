package importrule

import (
	"regexp"
	"sync"
)

// MaxCachedPatterns bounds the compiled pattern cache.
const MaxCachedPatterns = 1024

type compiled struct {
	re  *regexp.Regexp
	err error
}

// patternCache memoizes regexp compilation across imports. When full it is
// emptied rather than evicting entry by entry.
type patternCache struct {
	mu      sync.Mutex
	entries map[string]compiled
	limit   int
}

func newPatternCache(limit int) *patternCache {
	return &patternCache{entries: make(map[string]compiled), limit: limit}
}

var patterns = newPatternCache(MaxCachedPatterns)

// compile returns the compiled pattern, remembering failures too.
func (c *patternCache) compile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[pattern]; ok {
		return e.re, e.err
	}

	re, err := regexp.Compile(pattern)
	if len(c.entries) >= c.limit {
		clear(c.entries)
	}
	c.entries[pattern] = compiled{re: re, err: err}
	return re, err
}

func (c *patternCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
