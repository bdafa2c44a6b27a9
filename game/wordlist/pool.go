package wordlist

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
)

// Shuffler reorders words in place
type Shuffler func(words []string)

// DefaultShuffler shuffles with the package-level math/rand source
func DefaultShuffler(words []string) {
	rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
}

// Pool hands out words from one wordlist without repeating any word until
// the current shuffled batch can no longer satisfy a draw. A Pool is not
// safe for concurrent use; its owner serializes access.
type Pool struct {
	name      string
	source    []string
	remaining []string
	shuffle   Shuffler
}

// PoolOption configures a Pool
type PoolOption func(*Pool)

// WithShuffler replaces the shuffle used on refill
func WithShuffler(s Shuffler) PoolOption {
	return func(p *Pool) {
		p.shuffle = s
	}
}

// NewPool creates a pool over the named wordlist of the catalog. The pool
// starts empty and fills itself on the first draw.
func NewPool(c *Catalog, name string, opts ...PoolOption) (*Pool, error) {
	words, ok := c.Words(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWordlistNotFound, name)
	}

	p := &Pool{
		name:    name,
		source:  words,
		shuffle: DefaultShuffler,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Name returns the wordlist this pool draws from
func (p *Pool) Name() string {
	return p.name
}

// Size returns the length of the backing wordlist
func (p *Pool) Size() int {
	return len(p.source)
}

// Remaining returns how many words are left in the current batch
func (p *Pool) Remaining() int {
	return len(p.remaining)
}

// Draw removes count words from the front of the pool. When fewer than
// count words are left, the leftovers are discarded and the pool is
// refilled with a fresh shuffle of the whole list first.
func (p *Pool) Draw(count int) ([]string, error) {
	if count < 0 || count > len(p.source) {
		return nil, fmt.Errorf("%w: %d words requested from %s (%d available)",
			ErrInvalidCount, count, p.name, len(p.source))
	}

	if len(p.remaining) < count {
		log.Debug().Str("wordlist", p.name).Int("count", count).Msg("reshuffling word pool")
		p.remaining = make([]string, len(p.source))
		copy(p.remaining, p.source)
		p.shuffle(p.remaining)
	}

	drawn := make([]string, count)
	copy(drawn, p.remaining[:count])
	p.remaining = p.remaining[count:]

	return drawn, nil
}
