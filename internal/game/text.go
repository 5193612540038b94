package game

import (
	"slices"
	"strings"
	"unicode"
)

// formatName renders a player name for the transcript: the local player is
// "You", everyone else gets their roster capitalization.
func (s *Session) formatName(name string) string {
	if strings.EqualFold(name, s.self) {
		return "You"
	}
	for _, player := range s.roster.Players() {
		if strings.EqualFold(player, name) {
			return player
		}
	}
	return name
}

// formatPile renders a pile reference relative to the local player and the
// actor: "the draw pile", "your hand", "their hand", "Bob's hand".
func (s *Session) formatPile(pile *Pile, from string) string {
	if pile.Shared() {
		return "the " + pile.Name() + " pile"
	}

	name := s.formatName(pile.Owner())
	switch {
	case name == "You":
		return "your hand"
	case pile.Owner() == from:
		return "their hand"
	default:
		return name + "'s hand"
	}
}

// formatPlayers renders a recipient list, collapsing the full roster to
// "everyone".
func (s *Session) formatPlayers(names []string) string {
	roster := s.roster.Players()
	if len(names) == len(roster) {
		lowered := make([]string, len(roster))
		for i, player := range roster {
			lowered[i] = strings.ToLower(player)
		}
		slices.Sort(lowered)
		sorted := slices.Clone(names)
		slices.Sort(sorted)
		if slices.Equal(lowered, sorted) {
			return "everyone"
		}
	}

	formatted := make([]string, len(names))
	for i, name := range names {
		formatted[i] = s.formatName(name)
	}
	if len(formatted) < 3 {
		return strings.Join(formatted, " and ")
	}
	return strings.Join(formatted[:len(formatted)-1], ", ") + ", and " + formatted[len(formatted)-1]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func plural(n int) string {
	if n == 1 {
		return "card"
	}
	return "cards"
}
