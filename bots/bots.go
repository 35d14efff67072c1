// Package bots generates identities for synthetic opponents used to
// fill tournament pools.
package bots

import (
	"fmt"
	"strings"
	"sync"
)

// Prefix marks an identifier as a synthetic opponent. Bot identifiers
// never collide with real user identifiers, which come from the
// identity provider without a colon.
const Prefix = ":bot:"

var names = []string{
	"Tex", "Domino", "Shelby", "Dusty", "Maverick", "Cactus",
	"Sidewinder", "Bluebonnet", "Rattler", "Lonestar", "Brazos",
	"Amarillo", "Pecos", "Laredo", "Waco", "Abilene",
}

var (
	mu   sync.Mutex
	next int
)

// Name returns a unique synthetic-opponent identifier. Names cycle
// through the list and gain a numeric suffix once exhausted.
func Name() string {
	mu.Lock()
	defer mu.Unlock()
	n := next
	next++
	base := names[n%len(names)]
	if n < len(names) {
		return Prefix + base
	}
	return fmt.Sprintf("%s%s-%d", Prefix, base, n/len(names))
}

// IsBot reports whether id names a synthetic opponent.
func IsBot(id string) bool {
	return strings.HasPrefix(id, Prefix)
}

// DisplayName strips the synthetic marker for rendering.
func DisplayName(id string) string {
	return strings.TrimPrefix(id, Prefix)
}
