package brackets

// Team is an unordered pair of user identifiers.
type Team struct {
	Users [2]string
}

// Bye is the sentinel opponent. A game holding Bye in one seat
// resolves without ever creating a match room.
var Bye = &Team{}

func NewTeam(a, b string) *Team {
	return &Team{Users: [2]string{a, b}}
}

// IsBye reports whether t is the Bye sentinel.
func (t *Team) IsBye() bool {
	return t == Bye
}

// Has reports whether user occupies either slot of the team.
func (t *Team) Has(user string) bool {
	return t.Users[0] == user || t.Users[1] == user
}
