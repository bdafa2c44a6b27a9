package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Extension is the file suffix a wordlist file must carry.
const Extension = ".txt"

var (
	ErrWordlistNotFound = errors.New("wordlist not found")
	ErrInvalidCount     = errors.New("invalid word count")
	ErrEmptyDirectory   = errors.New("no wordlists found")
)

// Info describes one wordlist by name and number of distinct words
type Info struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Catalog is the set of wordlists known to the server. It is immutable
// once built, so it can be shared by every room without locking.
type Catalog struct {
	lists map[string][]string
	names []string
}

// New builds a catalog from an in-memory mapping. Words are trimmed, blank
// entries skipped and duplicates dropped keeping the first occurrence.
func New(lists map[string][]string) *Catalog {
	c := &Catalog{
		lists: make(map[string][]string, len(lists)),
		names: make([]string, 0, len(lists)),
	}

	for name, words := range lists {
		c.lists[name] = Normalize(words)
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	return c
}

// LoadDir reads every *.txt file in dir. The wordlist name is the file
// name without its extension and each non-blank line is one word.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read wordlist directory: %w", err)
	}

	lists := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), Extension)
		words, err := ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load wordlist %s: %w", name, err)
		}

		lists[name] = words
		log.Debug().Str("wordlist", name).Int("words", len(words)).Msg("loaded wordlist")
	}

	if len(lists) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyDirectory, dir)
	}

	return New(lists), nil
}

// ReadFile returns the raw lines of a wordlist file, trimmed, without any
// filtering. Use Normalize to get the words a catalog would keep.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// Normalize trims words, drops blanks and removes duplicates.
func Normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Names returns the wordlist names in sorted order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Words returns a copy of the named wordlist
func (c *Catalog) Words(name string) ([]string, bool) {
	words, ok := c.lists[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(words))
	copy(out, words)
	return out, true
}

// Size returns the number of words in the named list, or zero
func (c *Catalog) Size(name string) int {
	return len(c.lists[name])
}

// Infos lists every wordlist with its size, sorted by name
func (c *Catalog) Infos() []Info {
	infos := make([]Info, 0, len(c.names))
	for _, name := range c.names {
		infos = append(infos, Info{Name: name, Size: len(c.lists[name])})
	}
	return infos
}

// Len returns the number of wordlists
func (c *Catalog) Len() int {
	return len(c.names)
}
