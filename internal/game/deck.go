package game

import (
	"math/rand"
	"strconv"

	"cardtable/internal/model"
)

// Fixed deck sizes per game kind; the conservation invariant checks
// against these.
const (
	UnoDeckSize   = 108
	Flip7DeckSize = 94
)

var unoColors = []string{"R", "Y", "G", "B"}

// BuildDeck returns a freshly shuffled deck for the given game kind.
func BuildDeck(kind model.GameKind) []model.Card {
	var deck []model.Card
	switch kind {
	case model.GameUno:
		deck = buildUnoDeck()
	case model.GameFlip7:
		deck = buildFlip7Deck()
	}
	shuffleCards(deck)
	return deck
}

// buildUnoDeck composes the 108-card deck: per color one 0, two each of
// 1-9, two each of Skip/Reverse/Draw-2; plus 4 wilds and 4 wild-draw-4.
func buildUnoDeck() []model.Card {
	deck := make([]model.Card, 0, UnoDeckSize)
	for _, c := range unoColors {
		deck = append(deck, model.Card(c+"0"))
		for n := 1; n <= 9; n++ {
			card := model.Card(c + strconv.Itoa(n))
			deck = append(deck, card, card)
		}
		for _, sym := range []string{"S", "RV", "+2"} {
			card := model.Card(c + sym)
			deck = append(deck, card, card)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, "W")
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, "W+4")
	}
	return deck
}

// buildFlip7Deck composes the 94-card deck: one 0 and n copies of n for
// 1-12, one of each modifier, three of each action card.
func buildFlip7Deck() []model.Card {
	deck := make([]model.Card, 0, Flip7DeckSize)
	deck = append(deck, "0")
	for n := 1; n <= 12; n++ {
		card := model.Card(strconv.Itoa(n))
		for i := 0; i < n; i++ {
			deck = append(deck, card)
		}
	}
	deck = append(deck, "+2", "+4", "+6", "+8", "+10", "x2")
	for _, a := range []model.Card{"Freeze", "Flip3", "SecondChance"} {
		deck = append(deck, a, a, a)
	}
	return deck
}

func shuffleCards(cards []model.Card) {
	rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// DrawOne removes and returns the top card of the deck. When the deck
// runs dry it reshuffles everything in the discard except the current top
// back into the deck. Returns false when no card is available anywhere;
// callers treat that as "no card", not an error.
func DrawOne(r *model.Room) (model.Card, bool) {
	if len(r.Deck) == 0 && len(r.Discard) > 1 {
		top := r.Discard[0]
		pool := make([]model.Card, len(r.Discard)-1)
		copy(pool, r.Discard[1:])
		shuffleCards(pool)
		r.Deck = pool
		r.Discard = []model.Card{top}
	}
	if len(r.Deck) == 0 {
		return "", false
	}
	card := r.Deck[0]
	r.Deck = r.Deck[1:]
	return card, true
}

// DiscardTop returns the current discard top, or "" when empty.
func DiscardTop(r *model.Room) model.Card {
	if len(r.Discard) == 0 {
		return ""
	}
	return r.Discard[0]
}
