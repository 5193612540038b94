package game

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/brandosha/socialdistanceroom/internal/deck"
	"github.com/brandosha/socialdistanceroom/internal/randutil"
)

// maxDice bounds a single roll so one bad command cannot stall every peer
// replaying it.
const maxDice = 1000

type actionFunc func(s *Session, opts Values, actor string, seed uint32) (*Outcome, error)

type actionDef struct {
	// format is nil for sort, whose default depends on the active deck; the
	// session supplies it at dispatch time.
	format          *Format
	allowOtherHands bool
	run             actionFunc
}

// actionTable is the closed verb set. Option formats are compiled once at
// startup; a malformed format is a programmer error and panics here.
var actionTable = map[string]actionDef{
	"add": {
		format: mustFormat("pile=draw"),
		run:    actionAdd,
	},
	"choose": {
		format: mustFormat("cards", `"from"`, "pile=draw"),
		run:    actionChoose,
	},
	"count": {
		format:          mustFormat("pile=hand"),
		allowOtherHands: true,
		run:             actionCount,
	},
	"deal": {
		format: mustFormat("amount=all", `"from"`, "pile=draw", `"to"`, "players=everyone"),
		run:    actionDeal,
	},
	"look": {
		format: mustFormat("cards=all", `"in"`, "pile=hand"),
		run:    actionLook,
	},
	"make": {
		format: mustFormat("word"),
		run:    actionMake,
	},
	"move": {
		format: mustFormat("cards", `"from"`, "pile=draw", `"to"`, "position=top", "pile=discard"),
		run:    actionMove,
	},
	"play": {
		format: mustFormat("cards", `"onto"`, "position=top", "pile=discard"),
		run:    actionPlay,
	},
	"put": {
		format: mustFormat("cards", `"onto"`, "position=top", "pile=discard"),
		run:    actionPut,
	},
	"remove": {
		format: mustFormat("cards=all", `"from"`, "pile"),
		run:    actionRemove,
	},
	"roll": {
		format: mustFormat("word=d6"),
		run:    actionRoll,
	},
	"show": {
		format: mustFormat("cards", `"to"`, "players=everyone"),
		run:    actionShow,
	},
	"shuffle": {
		format: mustFormat("pile=draw"),
		run:    actionShuffle,
	},
	"sort": {
		run: actionSort,
	},
	"take": {
		format: mustFormat("amount=1", `"from"`, "position=top", "pile=draw"),
		run:    actionTake,
	},
}

func actionAdd(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	pile := opts.Pile(0)

	full := s.deck.FullSet()
	pile.PushTop(full...)

	return &Outcome{
		Text:     fmt.Sprintf("%s added %d cards to %s", s.formatName(actor), len(full), s.formatPile(pile, actor)),
		Modifies: []*Pile{pile},
		Share:    true,
	}, nil
}

func actionChoose(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	ref := opts.Cards(0)
	pile := opts.Pile(1)

	if pile.IsHand() {
		return nil, commandErrorf(KindPermissionDenied, "You cannot choose cards from your own hand")
	}
	hand, err := s.actorHand(actor)
	if err != nil {
		return nil, err
	}

	cards, err := pile.RemoveCards(ref, randutil.New(seed))
	if err != nil {
		return nil, err
	}
	hand.PushTop(cards...)

	return &Outcome{
		Text: fmt.Sprintf("%s chose %d %s from %s",
			s.formatName(actor), len(cards), plural(len(cards)), s.formatPile(pile, actor)),
		Cards:    indexCards(cards),
		Shows:    hand,
		Modifies: []*Pile{pile, hand},
		Share:    true,
	}, nil
}

func actionCount(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	pile := opts.Pile(0)

	if actor == s.self {
		amountText := fmt.Sprintf("are %d cards", pile.Len())
		if pile.Len() == 1 {
			amountText = "is 1 card"
		}
		return &Outcome{
			Text:  fmt.Sprintf("There %s in %s", amountText, s.formatPile(pile, actor)),
			Share: pile.Owner() != actor,
		}, nil
	}

	return &Outcome{
		Text:   fmt.Sprintf("%s counted the cards in %s", s.formatName(actor), s.formatPile(pile, actor)),
		Silent: !pile.Shared() && pile.Owner() != s.self,
	}, nil
}

func actionDeal(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	amount := opts.Amount(0)
	pile := opts.Pile(1)
	dealTo := opts.Players(2)

	if len(dealTo) == 0 {
		return nil, commandErrorf(KindInvalidValue, "There is no one to deal to")
	}
	hands := make([]*Pile, len(dealTo))
	for i, player := range dealTo {
		hand, ok := s.hands[player]
		if !ok {
			return nil, commandErrorf(KindAmbiguousReference, "Unknown player name %q", player)
		}
		hands[i] = hand
	}

	total := pile.Len()
	if !amount.All {
		total = min(amount.N*len(dealTo), pile.Len())
	}

	modified := []*Pile{pile}
	for i := 0; i < total; i++ {
		card, ok := pile.TakeTop()
		if !ok {
			break
		}
		hand := hands[i%len(hands)]
		hand.PushTop(card)
		if !slices.Contains(modified, hand) {
			modified = append(modified, hand)
		}
	}

	amountText := "all of the"
	cardsFormat := "cards"
	if !amount.All {
		amountText = strconv.Itoa(amount.N)
		cardsFormat = plural(amount.N)
	}
	return &Outcome{
		Text: fmt.Sprintf("%s dealt out %s %s from %s to %s",
			s.formatName(actor), amountText, cardsFormat, s.formatPile(pile, actor), s.formatPlayers(dealTo)),
		Modifies: modified,
		Share:    true,
		Silent:   !slices.Contains(dealTo, s.self),
	}, nil
}

func actionLook(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	ref := opts.Cards(0)
	pile := opts.Pile(1)

	cards, err := pile.GetCards(ref, randutil.New(seed))
	if err != nil {
		return nil, err
	}

	if actor == s.self {
		return &Outcome{
			Text:  capitalize(s.formatPile(pile, actor)) + ":",
			Cards: cards,
			Shows: pile,
			Share: pile.Owner() != actor,
		}, nil
	}

	var amountText string
	switch ref.Kind {
	case RefAll:
		amountText = ""
	case RefPosition:
		if ref.Position == Random {
			amountText = fmt.Sprintf("%d random cards from ", len(cards))
		} else {
			amountText = fmt.Sprintf("%d %s from the %s of ", len(cards), plural(len(cards)), ref.Position)
		}
	default:
		amountText = fmt.Sprintf("%d %s from ", len(cards), plural(len(cards)))
	}
	return &Outcome{
		Text: fmt.Sprintf("%s looked at %s%s", s.formatName(actor), amountText, s.formatPile(pile, actor)),
	}, nil
}

func actionMake(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	name := opts.Word(0)

	if _, exists := s.shared[name]; exists {
		return nil, commandErrorf(KindInvalidValue, "%q already exists", name)
	}
	if slices.Contains(reservedNames, name) {
		return nil, commandErrorf(KindInvalidValue, "%q is a reserved word", name)
	}
	for _, player := range s.roster.Players() {
		if strings.ToLower(player) == name {
			return nil, commandErrorf(KindInvalidValue, "Piles cannot have the same name as a player")
		}
	}

	s.addShared(NewPile(name, SharedOwner))

	return &Outcome{
		Text:  fmt.Sprintf("%s created a new pile %q", s.formatName(actor), name),
		Share: true,
	}, nil
}

func actionMove(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	ref := opts.Cards(0)
	fromPile := opts.Pile(1)
	position := opts.Position(2)
	toPile := opts.Pile(3)

	rng := randutil.New(seed)
	cards, err := fromPile.RemoveCards(ref, rng)
	if err != nil {
		return nil, err
	}

	oldPlacement := "the " + position.String() + " of"
	newPlacement := "onto the " + position.String() + " of"
	switch position {
	case Top:
		toPile.PushTop(cards...)
	case Bottom:
		toPile.PushBottom(cards...)
	case Random:
		for _, card := range cards {
			toPile.InsertAt(rng.Intn(toPile.Len()+1), card)
		}
		oldPlacement = "random positions in"
		newPlacement = "at random into"
	}

	return &Outcome{
		Text: fmt.Sprintf("%s moved %d %s from %s %s %s %s",
			s.formatName(actor), len(cards), plural(len(cards)),
			oldPlacement, s.formatPile(fromPile, actor), newPlacement, s.formatPile(toPile, actor)),
		Modifies: []*Pile{fromPile, toPile},
		Share:    true,
	}, nil
}

// placeFromHand moves cards out of the actor's hand into a pile at the given
// position, returning the removed cards and their 1-based landing indices.
func (s *Session) placeFromHand(ref CardsRef, position Position, pile *Pile, actor string, seed uint32) ([]deck.Card, []int, string, error) {
	if pile.IsHand() {
		return nil, nil, "", commandErrorf(KindPermissionDenied, "Cannot play a card onto the top of your hand")
	}
	hand, err := s.actorHand(actor)
	if err != nil {
		return nil, nil, "", err
	}

	rng := randutil.New(seed)
	cards, err := hand.RemoveCards(ref, rng)
	if err != nil {
		return nil, nil, "", err
	}

	indices := make([]int, 0, len(cards))
	placement := "onto the " + position.String() + " of"
	switch position {
	case Top:
		pile.PushTop(cards...)
		for i := range cards {
			indices = append(indices, i+1)
		}
	case Bottom:
		pile.PushBottom(cards...)
		for i := range cards {
			indices = append(indices, pile.Len()-len(cards)+i+1)
		}
	case Random:
		for _, card := range cards {
			at := rng.Intn(pile.Len() + 1)
			pile.InsertAt(at, card)
			indices = append(indices, at+1)
		}
		placement = "at random into"
	}
	return cards, indices, placement, nil
}

func actionPlay(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	ref := opts.Cards(0)
	position := opts.Position(1)
	pile := opts.Pile(2)

	cards, indices, placement, err := s.placeFromHand(ref, position, pile, actor, seed)
	if err != nil {
		return nil, err
	}
	hand, _ := s.Hand(actor)

	revealed := make([]IndexedCard, len(cards))
	for i, card := range cards {
		revealed[i] = IndexedCard{Card: card, Index: indices[i]}
	}
	return &Outcome{
		Text: fmt.Sprintf("%s played %d %s %s %s",
			s.formatName(actor), len(cards), plural(len(cards)), placement, s.formatPile(pile, actor)),
		Cards:    revealed,
		Modifies: []*Pile{pile, hand},
		Share:    true,
	}, nil
}

func actionPut(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	ref := opts.Cards(0)
	position := opts.Position(1)
	pile := opts.Pile(2)

	cards, _, placement, err := s.placeFromHand(ref, position, pile, actor, seed)
	if err != nil {
		return nil, err
	}
	hand, _ := s.Hand(actor)

	return &Outcome{
		Text: fmt.Sprintf("%s put %d %s %s %s",
			s.formatName(actor), len(cards), plural(len(cards)), placement, s.formatPile(pile, actor)),
		Modifies: []*Pile{pile, hand},
		Share:    true,
	}, nil
}

func actionRemove(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	ref := opts.Cards(0)
	pile := opts.Pile(1)

	cards, err := pile.RemoveCards(ref, randutil.New(seed))
	if err != nil {
		return nil, err
	}

	var cardsText string
	if len(cards) > 0 {
		lines := make([]string, len(cards))
		for i, card := range cards {
			lines[i] = s.deck.CardText(card)
		}
		cardsText = ":\n" + strings.Join(lines, "\n")
	}
	return &Outcome{
		Text: fmt.Sprintf("%s removed %d cards from %s%s",
			s.formatName(actor), len(cards), s.formatPile(pile, actor), cardsText),
		Modifies: []*Pile{pile},
		Share:    true,
	}, nil
}

func actionRoll(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	spec := opts.Word(0)

	count, sides, err := parseDice(spec)
	if err != nil {
		return nil, err
	}

	rng := randutil.New(seed)
	results := make([]int, count)
	total := 0
	for i := range results {
		results[i] = int(math.Ceil(rng.Float64() * float64(sides)))
		total += results[i]
	}

	parts := make([]string, count)
	for i, r := range results {
		parts[i] = strconv.Itoa(r)
	}
	countText := strconv.Itoa(count)
	totalText := fmt.Sprintf(" for a total of %d", total)
	if count == 1 {
		countText = "a "
		totalText = ""
	}
	return &Outcome{
		Text: fmt.Sprintf("%s rolled %sd%d and got %s%s",
			s.formatName(actor), countText, sides, strings.Join(parts, ", "), totalText),
		Share: true,
	}, nil
}

// parseDice understands "NdM", "dM", and a bare side count.
func parseDice(spec string) (count, sides int, err error) {
	count, sides = 1, 6
	if spec == "" {
		return count, sides, nil
	}

	if n, ok := parseInt(spec); ok {
		sides = n
	} else if strings.Contains(spec, "d") {
		parts := strings.Split(spec, "d")
		if len(parts) != 2 {
			return 0, 0, commandErrorf(KindInvalidValue, "Expected a dice description like \"2d6\" but got %q", spec)
		}
		if parts[0] != "" {
			c, err := strconv.Atoi(parts[0])
			if err != nil {
				return 0, 0, commandErrorf(KindInvalidValue, "Expected a dice description like \"2d6\" but got %q", spec)
			}
			count = c
		}
		sd, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, commandErrorf(KindInvalidValue, "Expected a dice description like \"2d6\" but got %q", spec)
		}
		sides = sd
	} else {
		return 0, 0, commandErrorf(KindInvalidValue, "Expected a dice description like \"2d6\" but got %q", spec)
	}

	if count < 1 || sides < 1 {
		return 0, 0, commandErrorf(KindInvalidValue, "Expected a dice description like \"2d6\" but got %q", spec)
	}
	if count > maxDice {
		return 0, 0, commandErrorf(KindInvalidValue, "Cannot roll more than %d dice at once", maxDice)
	}
	return count, sides, nil
}

func actionShow(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	ref := opts.Cards(0)
	recipients := opts.Players(1)

	hand, err := s.actorHand(actor)
	if err != nil {
		return nil, err
	}
	cards, err := hand.GetCards(ref, randutil.New(seed))
	if err != nil {
		return nil, err
	}

	if actor == s.self {
		return &Outcome{
			Text: fmt.Sprintf("You showed %s %d %s from your hand",
				s.formatPlayers(recipients), len(cards), plural(len(cards))),
			Cards: cards,
			Shows: hand,
			Share: true,
		}, nil
	}

	return &Outcome{
		Text: fmt.Sprintf("%s showed you %d %s from their hand:\n%s",
			s.formatName(actor), len(cards), plural(len(cards)), s.cardLines(cards, false)),
		Silent: !slices.Contains(recipients, s.self),
	}, nil
}

func actionShuffle(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	pile := opts.Pile(0)

	pile.Shuffle(randutil.New(seed))

	return &Outcome{
		Text:     fmt.Sprintf("%s shuffled %s", s.formatName(actor), s.formatPile(pile, actor)),
		Modifies: []*Pile{pile},
		Share:    true,
		Silent:   !pile.Shared() && pile.Owner() != s.self,
	}, nil
}

func actionSort(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	pile := opts.Pile(0)
	sortBy := opts.Word(1)

	if err := pile.Sort(s.deck, sortBy); err != nil {
		return nil, err
	}

	return &Outcome{
		Text:     fmt.Sprintf("%s sorted %s by %s", s.formatName(actor), s.formatPile(pile, actor), sortBy),
		Modifies: []*Pile{pile},
		Share:    true,
		Silent:   !pile.Shared() && pile.Owner() != s.self,
	}, nil
}

func actionTake(s *Session, opts Values, actor string, seed uint32) (*Outcome, error) {
	amount := opts.Amount(0)
	position := opts.Position(1)
	pile := opts.Pile(2)

	if position == Random {
		return nil, commandErrorf(KindInvalidValue, "%q is not a valid option for this action", "random")
	}
	if pile.IsHand() {
		return nil, commandErrorf(KindPermissionDenied, "You cannot take cards from your own hand")
	}
	hand, err := s.actorHand(actor)
	if err != nil {
		return nil, err
	}

	ref := AllCards()
	if !amount.All {
		ref = CardsRef{Kind: RefPosition, Position: position, Amount: amount.N}
	}
	cards, err := pile.RemoveCards(ref, randutil.New(seed))
	if err != nil {
		return nil, err
	}
	hand.PushTop(cards...)

	amountText := "all"
	cardsFormat := "cards"
	if !amount.All {
		amountText = strconv.Itoa(amount.N)
		cardsFormat = plural(amount.N)
	}
	return &Outcome{
		Text: fmt.Sprintf("%s took %s %s from the %s of %s",
			s.formatName(actor), amountText, cardsFormat, position, s.formatPile(pile, actor)),
		Cards:    indexCards(cards),
		Shows:    hand,
		Modifies: []*Pile{pile, hand},
		Share:    true,
	}, nil
}

// actorHand resolves the acting player's hand pile.
func (s *Session) actorHand(actor string) (*Pile, error) {
	hand, ok := s.hands[actor]
	if !ok {
		return nil, commandErrorf(KindAmbiguousReference, "%q does not have a hand", actor)
	}
	return hand, nil
}

func indexCards(cards []deck.Card) []IndexedCard {
	out := make([]IndexedCard, len(cards))
	for i, card := range cards {
		out[i] = IndexedCard{Card: card, Index: i + 1}
	}
	return out
}
