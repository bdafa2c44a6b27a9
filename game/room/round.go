package room

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	"github.com/wricardo/castlefall/game/wordlist"
)

// StartRound begins the next round on behalf of starter. Every check runs
// before any state changes, so a failed start leaves the room untouched.
// Errors wrap ErrOutOfSync, ErrTooSoon or ErrInvalidWordlist.
func (r *Room) StartRound(starter string, req StartRequest) (*RoundResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	round, ok := parseRound(req.Round)
	if !ok || round != r.round {
		return nil, ErrOutOfSync
	}

	now := r.opts.Now()
	if !r.lastStart.IsZero() && now.Sub(r.lastStart) < r.opts.Cooldown {
		return nil, ErrTooSoon
	}

	count := r.wordCount(req.WordCount)

	pool, err := r.poolLocked(req.Wordlist)
	if err != nil {
		return nil, err
	}
	if count < minWords || count > pool.Size() {
		return nil, fmt.Errorf("%w: %s has %d words, cannot draw %d",
			ErrInvalidWordlist, req.Wordlist, pool.Size(), count)
	}

	words, err := pool.Draw(count)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWordlist, err)
	}
	r.pools[req.Wordlist] = pool

	previous := r.spoilerLocked()

	r.round++
	r.starter = starter
	r.lastStart = now

	members := r.namesLocked()
	shuffled := make([]string, len(members))
	copy(shuffled, members)
	r.rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	picks := r.rand.Perm(len(words))
	word1, word2 := words[picks[0]], words[picks[1]]

	half := len(shuffled) / 2
	r.assigned = make(map[string]string, len(shuffled))
	for i, name := range shuffled {
		if i >= half {
			r.assigned[name] = word2
		} else {
			r.assigned[name] = word1
		}
	}

	r.playersInRound = members
	r.currentWords = words

	res := &RoundResult{
		Round:          r.round,
		Starter:        r.starter,
		Wordlist:       req.Wordlist,
		PlayersInRound: append([]string(nil), members...),
		Words:          append([]string(nil), words...),
		Assigned:       make(map[string]string, len(r.assigned)),
		Previous:       previous,
	}
	for name, w := range r.assigned {
		res.Assigned[name] = w
	}
	for _, rc := range r.recipientsLocked() {
		res.Views = append(res.Views, r.viewLocked(rc))
	}

	return res, nil
}

// poolLocked returns the pool for a wordlist without registering a new one
func (r *Room) poolLocked(name string) (*wordlist.Pool, error) {
	if pool, ok := r.pools[name]; ok {
		return pool, nil
	}

	pool, err := wordlist.NewPool(r.catalog, name, wordlist.WithShuffler(func(words []string) {
		r.rand.Shuffle(len(words), func(i, j int) {
			words[i], words[j] = words[j], words[i]
		})
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: unknown wordlist %q", ErrInvalidWordlist, name)
	}
	return pool, nil
}

// spoilerLocked captures the assignments of the round about to be replaced
func (r *Room) spoilerLocked() *Spoiler {
	if r.round == 0 {
		return nil
	}

	s := &Spoiler{Number: r.round, Players: make([]Assignment, 0, len(r.playersInRound))}
	for _, name := range r.playersInRound {
		if w, ok := r.assigned[name]; ok {
			s.Players = append(s.Players, Assignment{Name: name, Word: w})
		}
	}
	return s
}

// wordCount resolves the requested count, falling back to the default for
// missing or non-numeric values
func (r *Room) wordCount(v any) int {
	if v == nil {
		return r.opts.DefaultWordCount
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return r.opts.DefaultWordCount
	}
	return n
}

// parseRound accepts integral numbers and numeric strings
func parseRound(v any) (int, bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
	case float32:
		if float64(x) != math.Trunc(float64(x)) {
			return 0, false
		}
	}

	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
