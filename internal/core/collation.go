package core

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collationLocale decides name order in every view: Swedish, so Å, Ä and Ö
// sort after Z.
var collationLocale = language.Swedish

// newCollator returns a fresh collator. Collators keep internal buffers and
// must not be shared between goroutines.
func newCollator() *collate.Collator {
	return collate.New(collationLocale)
}

// compareNames orders a and b by collation, falling back to byte order so the
// result is total.
func compareNames(c *collate.Collator, a, b string) int {
	if r := c.CompareString(a, b); r != 0 {
		return r
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
