package pipeline

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// RecordID derives a record id from the document URL and its position in
// the crawl result. The hash is bucketed mod 100000, so two different URLs
// can share a bucket; combined with an equal position that silently
// overwrites the earlier record. Accepted tradeoff for short stable ids.
func RecordID(url string, position int) string {
	return fmt.Sprintf("doc_%d_%d", xxhash.Sum64String(url)%100000, position)
}
