// Package wordlist loads the named vocabularies secret words are drawn
// from and hands them out through per-list pools.
//
// A Catalog is built once at startup, from a directory of *.txt files
// (one word per line) or from an in-memory map, and never changes
// afterwards. Rooms share the catalog and each room owns one Pool per
// wordlist it has used.
//
// Usage:
//
//	catalog, err := wordlist.LoadDir("wordlists")
//	pool, err := wordlist.NewPool(catalog, "basic")
//	words, err := pool.Draw(18)
package wordlist
