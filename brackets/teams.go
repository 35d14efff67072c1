package brackets

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrUnpairablePool is returned when the signup pool cannot be paired
// into teams after the drop step. It indicates a bug, not bad input.
var ErrUnpairablePool = errors.New("signup pool cannot be paired into teams")

const minBotBracket = 8

// FormTeams turns the signup snapshot into an ordered team list.
// Mutual partner picks are honored first (when choosePartner is set),
// then the remainder is paired off the shuffled order. When the pool
// is odd one player is dropped at random and returned as dropped.
// When fillWithBots is set the pool is first topped up with synthetic
// opponents to a power of two no smaller than 8.
//
// signups maps user id to the partner they asked for, empty string
// for none. botName must yield a unique identifier per call.
func FormTeams(rng *rand.Rand, signups map[string]string, choosePartner, fillWithBots bool, botName func() string) (teams []*Team, dropped string, err error) {
	order := make([]string, 0, len(signups))
	for id := range signups {
		order = append(order, id)
	}
	// Map iteration order is not reproducible under a seeded rng, so
	// fix it before shuffling.
	sort.Strings(order)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	if fillWithBots {
		max := minBotBracket
		for max < len(order) {
			max *= 2
		}
		for len(order) < max {
			order = append(order, botName())
		}
	}

	pool := make(map[string]bool, len(order))
	for _, id := range order {
		pool[id] = true
	}

	teams = make([]*Team, 0, len(order)/2)

	if choosePartner {
		for _, id := range order {
			if !pool[id] {
				continue
			}
			partner := signups[id]
			if partner == "" || partner == id || !pool[partner] {
				continue
			}
			if signups[partner] != id {
				continue
			}
			teams = append(teams, NewTeam(id, partner))
			delete(pool, id)
			delete(pool, partner)
		}
	}

	rest := make([]string, 0, len(pool))
	for _, id := range order {
		if pool[id] {
			rest = append(rest, id)
		}
	}

	if len(rest)%2 != 0 {
		i := rng.Intn(len(rest))
		dropped = rest[i]
		rest = append(rest[:i], rest[i+1:]...)
	}

	if len(rest)%2 != 0 {
		return nil, "", ErrUnpairablePool
	}
	for i := 0; i < len(rest); i += 2 {
		teams = append(teams, NewTeam(rest[i], rest[i+1]))
	}
	return teams, dropped, nil
}
