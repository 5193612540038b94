package game

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// OptionType enumerates the typed argument slots a command format can use.
type OptionType int

const (
	TypeAmount OptionType = iota
	TypeCards
	TypeNumber
	TypePile
	TypePlayer
	TypePlayers
	TypePosition
	TypeWord
)

func (t OptionType) String() string {
	switch t {
	case TypeAmount:
		return "amount"
	case TypeCards:
		return "cards"
	case TypeNumber:
		return "number"
	case TypePile:
		return "pile"
	case TypePlayer:
		return "player"
	case TypePlayers:
		return "players"
	case TypePosition:
		return "position"
	case TypeWord:
		return "word"
	default:
		return "unknown"
	}
}

// listType reports whether the type consumes a whole token list at once
// rather than one token per item.
func (t OptionType) listType() bool {
	return t == TypeCards || t == TypePlayers
}

var optionTypeNames = map[string]OptionType{
	"amount":   TypeAmount,
	"cards":    TypeCards,
	"number":   TypeNumber,
	"pile":     TypePile,
	"player":   TypePlayer,
	"players":  TypePlayers,
	"position": TypePosition,
	"word":     TypeWord,
}

// Value is one parsed option. The concrete type matches the slot's
// OptionType, so handlers can assert without checking.
type Value interface {
	isOptionValue()
}

// AmountValue is either "all" or a positive count.
type AmountValue struct {
	All bool
	N   int
}

// NumberValue is any signed integer.
type NumberValue int

// PileValue references a resolved pile.
type PileValue struct {
	Pile *Pile
}

// PlayerValue is a lowercase player name.
type PlayerValue string

// PlayersValue is a list of lowercase player names.
type PlayersValue []string

// PositionValue is a top/bottom/random position.
type PositionValue Position

// WordValue is a raw token.
type WordValue string

// CardsValue is an unresolved cards reference.
type CardsValue CardsRef

// ListValue holds per-token parses of an explicitly variadic fixed-size slot.
type ListValue []Value

func (AmountValue) isOptionValue()   {}
func (NumberValue) isOptionValue()   {}
func (PileValue) isOptionValue()     {}
func (PlayerValue) isOptionValue()   {}
func (PlayersValue) isOptionValue()  {}
func (PositionValue) isOptionValue() {}
func (WordValue) isOptionValue()     {}
func (CardsValue) isOptionValue()    {}
func (ListValue) isOptionValue()     {}

// Values indexes parsed options by slot order, separators excluded.
type Values []Value

func (v Values) Amount(i int) AmountValue { return v[i].(AmountValue) }
func (v Values) Number(i int) int         { return int(v[i].(NumberValue)) }
func (v Values) Pile(i int) *Pile         { return v[i].(PileValue).Pile }
func (v Values) Player(i int) string      { return string(v[i].(PlayerValue)) }
func (v Values) Players(i int) []string   { return []string(v[i].(PlayersValue)) }
func (v Values) Position(i int) Position  { return Position(v[i].(PositionValue)) }
func (v Values) Word(i int) string        { return string(v[i].(WordValue)) }
func (v Values) Cards(i int) CardsRef     { return CardsRef(v[i].(CardsValue)) }

// slot is one compiled non-separator position in a format.
type slot struct {
	typ      OptionType
	variadic bool
	def      []string // default tokens, nil when the slot is required
	index    int      // position in the result
}

// Format is a compiled option grammar: groups of typed slots delimited by
// literal separator tokens.
type Format struct {
	separators []string
	groups     [][]slot
	count      int
}

// CompileFormat turns a format specification into a Format. A slot spec is
// either a quoted literal separator, or `type`, `type...`, `type=default`,
// `type...=default tokens`. Only the last slot of a group may be variadic;
// violating that is a configuration error, caught here rather than at
// command time.
func CompileFormat(spec []string) (*Format, error) {
	f := &Format{}
	current := []slot{}

	for _, item := range spec {
		if strings.HasPrefix(item, `"`) && strings.HasSuffix(item, `"`) && len(item) >= 2 {
			sep := item[1 : len(item)-1]
			if strings.Contains(sep, " ") {
				return nil, fmt.Errorf("format: separator %q cannot contain spaces", sep)
			}
			f.separators = append(f.separators, sep)
			f.groups = append(f.groups, current)
			current = []slot{}
			continue
		}

		name, defSpec, hasDefault := strings.Cut(item, "=")
		sl := slot{index: f.count}
		if strings.HasSuffix(name, "...") {
			sl.variadic = true
			name = strings.TrimSuffix(name, "...")
		}
		typ, ok := optionTypeNames[name]
		if !ok {
			return nil, fmt.Errorf("format: no such type %q", name)
		}
		sl.typ = typ
		if typ.listType() {
			sl.variadic = true
		}
		if hasDefault {
			sl.def = strings.Split(defSpec, " ")
		}
		current = append(current, sl)
		f.count++
	}
	f.groups = append(f.groups, current)

	for _, group := range f.groups {
		for i, sl := range group {
			if sl.variadic && i != len(group)-1 {
				return nil, fmt.Errorf("format: only the last slot in a group can have a varied size")
			}
		}
	}
	return f, nil
}

// mustFormat compiles a statically known format, panicking on programmer
// error.
func mustFormat(spec ...string) *Format {
	f, err := CompileFormat(spec)
	if err != nil {
		panic(err)
	}
	return f
}

// splitGroups divides the raw tokens at the first occurrence of each
// separator, scanning separators last-to-first over the shrinking remainder.
// A missing separator yields an empty group. The exact procedure is part of
// the replay contract and mirrors the reference behavior.
func (f *Format) splitGroups(tokens []string) [][]string {
	groups := make([][]string, 0, len(f.separators)+1)
	remaining := tokens

	for i := len(f.separators) - 1; i >= 0; i-- {
		idx := slices.Index(remaining, f.separators[i])
		if idx == -1 {
			groups = slices.Insert(groups, 0, []string{})
			continue
		}

		last := len(remaining) == len(tokens)
		group := remaining[idx+1:]
		remaining = remaining[:idx+1]
		if !last && len(group) > 0 {
			// Strip the trailing separator left behind by the previous cut.
			group = group[:len(group)-1]
		}
		groups = slices.Insert(groups, 0, group)
	}

	if len(remaining) == len(tokens) {
		groups = slices.Insert(groups, 0, remaining)
	} else {
		groups = slices.Insert(groups, 0, remaining[:len(remaining)-1])
	}
	return groups
}

// parseContext carries everything per-type parsers need to resolve
// references.
type parseContext struct {
	session         *Session
	actor           string
	allowOtherHands bool
}

// parseOptions maps raw command tokens onto a format, producing one typed
// value per slot or a *CommandError.
func (s *Session) parseOptions(f *Format, options []string, actor string, allowOtherHands bool) (Values, error) {
	pc := &parseContext{session: s, actor: actor, allowOtherHands: allowOtherHands}

	result := make(Values, f.count)
	groups := f.splitGroups(options)

	for gi, slots := range f.groups {
		remaining := groups[gi]

		for _, sl := range slots {
			var parsed Value
			var err error

			switch {
			case len(remaining) == 0:
				parsed, err = pc.parseDefault(sl)
				if err != nil {
					return nil, err
				}

			case !sl.variadic:
				parsed, err = pc.parseSingle(sl.typ, remaining[0])
				if err != nil {
					if isInternal(err) || err.(*CommandError).Definite() {
						return nil, err
					}
					// Recoverable bad value: leave the token for the next
					// slot and fall back to the default.
					parsed, err = pc.parseDefault(sl)
					if err != nil {
						return nil, err
					}
				} else {
					remaining = remaining[1:]
				}

			default:
				parsed, err = pc.parseVariadic(sl.typ, remaining)
				if err != nil {
					return nil, err
				}
				remaining = nil
			}

			result[sl.index] = parsed
		}

		if len(remaining) > 0 {
			return nil, commandErrorf(KindInvalidValue, "Unexpected option %q", remaining[0])
		}
	}

	return result, nil
}

// parseDefault parses a slot's default tokens, or fails with the
// missing-required error when the slot has none.
func (pc *parseContext) parseDefault(sl slot) (Value, error) {
	if sl.def == nil {
		return nil, commandErrorf(KindMissingRequired, "Missing required option of type %q", sl.typ)
	}
	if sl.variadic {
		return pc.parseVariadic(sl.typ, sl.def)
	}
	return pc.parseSingle(sl.typ, sl.def[0])
}

// parseVariadic consumes a whole token group: list types take the remainder
// at once, fixed-size types distribute per token.
func (pc *parseContext) parseVariadic(typ OptionType, tokens []string) (Value, error) {
	switch typ {
	case TypeCards:
		return pc.parseCards(tokens)
	case TypePlayers:
		return pc.parsePlayers(tokens)
	default:
		if typ == TypePlayer {
			out := make(PlayersValue, 0, len(tokens))
			for _, tok := range tokens {
				v, err := pc.parseSingle(typ, tok)
				if err != nil {
					return nil, err
				}
				out = append(out, string(v.(PlayerValue)))
			}
			return out, nil
		}

		out := make(ListValue, 0, len(tokens))
		for _, tok := range tokens {
			v, err := pc.parseSingle(typ, tok)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
}

func (pc *parseContext) parseSingle(typ OptionType, token string) (Value, error) {
	switch typ {
	case TypeAmount:
		return parseAmount(token)
	case TypeNumber:
		n, ok := parseInt(token)
		if !ok {
			return nil, commandErrorf(KindInvalidValue, "Expected a number but got %q", token)
		}
		return NumberValue(n), nil
	case TypePosition:
		return parsePosition(token)
	case TypeWord:
		return WordValue(token), nil
	case TypePlayer:
		return pc.parsePlayer(token)
	case TypePile:
		return pc.parsePile(token)
	default:
		return nil, fmt.Errorf("option type %q cannot parse a single token", typ)
	}
}

// parseInt accepts only canonical decimal integers: "03", "+3" and "3x" are
// all rejected so that replays cannot disagree on what a token meant.
func parseInt(token string) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil || strconv.Itoa(n) != token {
		return 0, false
	}
	return n, true
}

func parseAmount(token string) (Value, error) {
	if token == "all" {
		return AmountValue{All: true}, nil
	}
	n, ok := parseInt(token)
	if !ok || n < 1 {
		return nil, commandErrorf(KindInvalidValue, "Expected an amount but got %q", token)
	}
	return AmountValue{N: n}, nil
}

func parsePosition(token string) (Value, error) {
	switch token {
	case "top":
		return PositionValue(Top), nil
	case "bottom":
		return PositionValue(Bottom), nil
	case "random":
		return PositionValue(Random), nil
	default:
		return nil, commandErrorf(KindInvalidValue, `Expected a position ("top" "bottom" or "random") but got %q`, token)
	}
}

func (pc *parseContext) parsePlayer(token string) (Value, error) {
	if token == "me" {
		return PlayerValue(pc.actor), nil
	}
	for _, player := range pc.session.roster.Players() {
		if strings.ToLower(player) == token {
			return PlayerValue(token), nil
		}
	}
	return nil, commandErrorf(KindInvalidValue, "Unknown player name %q", token)
}

func (pc *parseContext) parsePlayers(tokens []string) (Value, error) {
	roster := pc.session.roster.Players()

	if len(tokens) == 1 {
		switch tokens[0] {
		case "everyone":
			out := make(PlayersValue, len(roster))
			for i, player := range roster {
				out[i] = strings.ToLower(player)
			}
			return out, nil
		case "others":
			out := make(PlayersValue, 0, len(roster))
			found := false
			for _, player := range roster {
				name := strings.ToLower(player)
				if name == pc.actor {
					found = true
					continue
				}
				out = append(out, name)
			}
			if found {
				return out, nil
			}
			// The actor is not in the roster; fall through and let "others"
			// fail as an ordinary player name.
		}
	}

	out := make(PlayersValue, 0, len(tokens))
	for _, token := range tokens {
		v, err := pc.parsePlayer(token)
		if err != nil {
			return nil, err
		}
		out = append(out, string(v.(PlayerValue)))
	}
	return out, nil
}

func (pc *parseContext) parsePile(token string) (Value, error) {
	s := pc.session

	if token == "hand" || token == pc.actor {
		hand := s.hands[pc.actor]
		if hand == nil {
			return nil, commandErrorf(KindAmbiguousReference, "Unknown pile name %q", token)
		}
		return PileValue{Pile: hand}, nil
	}

	for _, player := range s.roster.Players() {
		if strings.ToLower(player) != token {
			continue
		}
		if !pc.allowOtherHands {
			return nil, commandErrorf(KindPermissionDenied, "You do not have permission to access %q", token)
		}
		hand := s.hands[token]
		if hand == nil {
			return nil, commandErrorf(KindAmbiguousReference, "Unknown pile name %q", token)
		}
		return PileValue{Pile: hand}, nil
	}

	if pile, ok := s.shared[token]; ok {
		return PileValue{Pile: pile}, nil
	}
	return nil, commandErrorf(KindAmbiguousReference, "Unknown pile name %q", token)
}

// parseCards accepts "all", a list of indices, or `position [amount]`.
func (pc *parseContext) parseCards(tokens []string) (Value, error) {
	if len(tokens) == 1 && tokens[0] == "all" {
		return CardsValue(AllCards()), nil
	}

	indices := make([]int, 0, len(tokens))
	allNumbers := true
	for _, token := range tokens {
		n, ok := parseInt(token)
		if !ok {
			allNumbers = false
			break
		}
		if !slices.Contains(indices, n) {
			indices = append(indices, n)
		}
	}
	if allNumbers && len(tokens) > 0 {
		return CardsValue(CardsRef{Kind: RefIndices, Indices: indices}), nil
	}

	if len(tokens) <= 2 && len(tokens) > 0 {
		posValue, err := parsePosition(tokens[0])
		if err != nil {
			return nil, commandErrorf(KindInvalidValue, "Expected a reference to cards, but got %q", tokens[0])
		}
		position := Position(posValue.(PositionValue))

		amount := 1
		if len(tokens) == 2 {
			amountValue, err := parseAmount(tokens[1])
			if err != nil {
				return nil, commandErrorf(KindInvalidValue,
					"Expected an amount of cards after %q but got %q", position, tokens[1])
			}
			av := amountValue.(AmountValue)
			if av.All {
				amount = -1
			} else {
				amount = av.N
			}
		}
		return CardsValue(CardsRef{Kind: RefPosition, Position: position, Amount: amount}), nil
	}

	return nil, commandErrorf(KindInvalidValue, "Expected cards but got %q", strings.Join(tokens, " "))
}

// isInternal reports whether err is an unexpected fault rather than a
// user-caused command error.
func isInternal(err error) bool {
	_, ok := err.(*CommandError)
	return !ok
}
