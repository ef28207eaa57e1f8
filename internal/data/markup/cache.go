// # internal/data/markup/cache.go
package markup

import (
	"crypto/sha256"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DocumentCache memoizes parsed documents by path and content hash. A
// watcher reload that finds unchanged bytes gets the cached parse back
// with hit set, which callers use to skip the reload entirely.
type DocumentCache struct {
	entries *lru.Cache[string, Document]
}

func NewDocumentCache(size int) (*DocumentCache, error) {
	entries, err := lru.New[string, Document](size)
	if err != nil {
		return nil, err
	}
	return &DocumentCache{entries: entries}, nil
}

// Load parses the content, decoding only when the path and hash pair has
// not been seen. The returned document is shared; callers must not
// mutate it.
func (c *DocumentCache) Load(path string, content []byte) (Document, bool, error) {
	key := fmt.Sprintf("%s:%x", path, sha256.Sum256(content))
	if doc, ok := c.entries.Get(key); ok {
		return doc, true, nil
	}
	doc, err := Decode(content)
	if err != nil {
		return Document{}, false, err
	}
	c.entries.Add(key, doc)
	return doc, false, nil
}

// Forget drops every cached parse for a path, used when the file is
// deleted or renamed away.
func (c *DocumentCache) Forget(path string) {
	prefix := path + ":"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}

// Len reports how many parses are cached.
func (c *DocumentCache) Len() int {
	return c.entries.Len()
}
