package game

// Outcome is the structured result of one executed action.
type Outcome struct {
	// Text is the narrative line, phrased from the local participant's
	// perspective.
	Text string

	// Cards lists cards revealed to the issuing participant, paired with
	// their display indices.
	Cards []IndexedCard

	// Shows marks the pile whose reveal becomes stale once the pile is
	// later modified.
	Shows *Pile

	// Modifies lists the piles the action mutated.
	Modifies []*Pile

	// Share indicates the action should be broadcast to peers.
	Share bool

	// Silent tells a receiving peer to suppress display, used when the
	// action does not concern them.
	Silent bool
}
