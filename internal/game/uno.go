package game

import (
	"fmt"
	"math/rand"
	"strings"

	"cardtable/internal/model"
)

// UnoEngine implements the trick-card rules: color/symbol matching
// against the discard top, wild color binding, and skip/reverse/draw-N
// effects. The game ends the moment a hand empties.
type UnoEngine struct{}

func NewUnoEngine() *UnoEngine { return &UnoEngine{} }

func (e *UnoEngine) Kind() model.GameKind { return model.GameUno }
func (e *UnoEngine) Name() string         { return "Uno (Classic)" }

func isWild(card model.Card) bool {
	return card == "W" || card == "W+4"
}

func validColor(code string) bool {
	_, ok := colorNames[code]
	return ok
}

// topBoundColor extracts the color a discard-top wild was bound to, e.g.
// "WG" -> "G", "W+4R" -> "R". Empty for an unbound wild.
func topBoundColor(top model.Card) string {
	s := strings.TrimPrefix(string(top), "W")
	s = strings.TrimPrefix(s, "+4")
	if s == "" {
		return ""
	}
	return s[:1]
}

// IsLegal implements the matching rule: anything starts an empty discard,
// wilds always play, otherwise color or symbol must match the top (a
// bound wild matches on its chosen color only).
func (e *UnoEngine) IsLegal(r *model.Room, card model.Card, chosenColor string) bool {
	top := DiscardTop(r)
	if top == "" {
		return true
	}
	if isWild(card) {
		return true
	}
	cColor := string(card)[:1]
	if strings.HasPrefix(string(top), "W") {
		bound := topBoundColor(top)
		if bound == "" {
			return true
		}
		return cColor == bound
	}
	return cColor == string(top)[:1] || string(card)[1:] == string(top)[1:]
}

func (e *UnoEngine) ApplyPlay(r *model.Room, playerID string, cardIndex int, chosenColor string) model.Outcome {
	p := r.Players[playerID]
	if p == nil {
		return model.Fail(model.ErrInvalidPayload, "player not found")
	}
	if cardIndex < 0 || cardIndex >= len(p.Hand) {
		return model.Fail(model.ErrInvalidPayload, "invalid card index")
	}
	raw := p.Hand[cardIndex]
	if isWild(raw) && !validColor(chosenColor) {
		return model.Fail(model.ErrIllegalMove, "wild play requires a chosen color")
	}
	if !e.IsLegal(r, raw, chosenColor) {
		top := DiscardTop(r)
		return model.Fail(model.ErrIllegalMove, fmt.Sprintf("illegal play: %s on %s", FormatCard(raw), FormatCard(top)))
	}

	// Validated; mutate from here on.
	p.Hand = append(p.Hand[:cardIndex], p.Hand[cardIndex+1:]...)

	encodedTop := raw
	if isWild(raw) {
		encodedTop = raw + model.Card(chosenColor)
	}
	r.Discard = append([]model.Card{encodedTop}, r.Discard...)

	out := model.Ok(fmt.Sprintf("%s played %s", p.Name, FormatCard(encodedTop)))
	out.Played = &model.CardPlayed{PlayerID: playerID, Name: p.Name, Card: encodedTop}

	skip := 0
	switch {
	case raw == "W+4":
		next := r.Order[NextIndex(r, 1)]
		e.forceDraw(r, next, 4)
		skip = 1
		out.Notices = append(out.Notices, model.Notice{
			PlayerID: next,
			Message:  fmt.Sprintf("%s played +4. You drew 4 cards and are skipped.", p.Name),
		})
	case raw == "W":
		// no effect beyond the color binding
	case strings.HasSuffix(string(raw), "+2"):
		next := r.Order[NextIndex(r, 1)]
		e.forceDraw(r, next, 2)
		skip = 1
		out.Notices = append(out.Notices, model.Notice{
			PlayerID: next,
			Message:  fmt.Sprintf("%s played +2. You drew 2 cards and are skipped.", p.Name),
		})
	case strings.HasSuffix(string(raw), "RV"):
		if len(r.Order) == 2 {
			// reverse acts as skip head-to-head
			skip = 1
		} else {
			ReverseDirection(r)
		}
	case strings.HasSuffix(string(raw), "S"):
		skip = 1
	}

	if len(p.Hand) == 0 {
		r.Status = model.StatusFinished
		r.Winner = playerID
		out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s wins!", p.Name))
		return out
	}

	Advance(r, 1+skip)
	return out
}

func (e *UnoEngine) ApplyDraw(r *model.Room, playerID string) model.Outcome {
	p := r.Players[playerID]
	if p == nil {
		return model.Fail(model.ErrInvalidPayload, "player not found")
	}
	if card, ok := DrawOne(r); ok {
		p.Hand = append(p.Hand, card)
		return model.Ok(fmt.Sprintf("%s drew a card", p.Name))
	}
	// No card anywhere; the draw is a no-op by contract.
	return model.Ok()
}

func (e *UnoEngine) ApplyPass(r *model.Room, playerID string) model.Outcome {
	p := r.Players[playerID]
	if p == nil {
		return model.Fail(model.ErrInvalidPayload, "player not found")
	}
	Advance(r, 1)
	return model.Ok(fmt.Sprintf("%s passed", p.Name))
}

func (e *UnoEngine) forceDraw(r *model.Room, playerID string, count int) {
	p := r.Players[playerID]
	if p == nil {
		return
	}
	for i := 0; i < count; i++ {
		card, ok := DrawOne(r)
		if !ok {
			return
		}
		p.Hand = append(p.Hand, card)
	}
}

// Initialize deals 7 cards to each seat in join order, flips the first
// discard, and applies it as if played (random color for a wild start
// card, since no player chose it).
func (e *UnoEngine) Initialize(r *model.Room) model.Outcome {
	r.Deck = BuildDeck(model.GameUno)
	r.Discard = nil
	r.Direction = 1
	r.TurnIndex = 0
	r.Winner = ""
	r.Flip7 = nil

	for _, pid := range r.Order {
		p := r.Players[pid]
		p.Hand = make([]model.Card, 0, 7)
		for i := 0; i < 7; i++ {
			if card, ok := DrawOne(r); ok {
				p.Hand = append(p.Hand, card)
			}
		}
	}

	out := model.Ok("Game started")
	first, ok := DrawOne(r)
	if ok {
		top := first
		switch {
		case first == "W" || first == "W+4":
			col := unoColors[rand.Intn(len(unoColors))]
			top = first + model.Card(col)
			if first == "W+4" {
				next := r.Order[NextIndex(r, 1)]
				e.forceDraw(r, next, 4)
				out.Notices = append(out.Notices, model.Notice{PlayerID: next, Message: "You received +4 from the start card"})
				Advance(r, 2)
			}
		case strings.HasSuffix(string(first), "+2"):
			next := r.Order[NextIndex(r, 1)]
			e.forceDraw(r, next, 2)
			out.Notices = append(out.Notices, model.Notice{PlayerID: next, Message: "You received +2 from the start card"})
			Advance(r, 2)
		case strings.HasSuffix(string(first), "RV"):
			if len(r.Order) == 2 {
				Advance(r, 1)
			} else {
				ReverseDirection(r)
			}
		case strings.HasSuffix(string(first), "S"):
			Advance(r, 1)
		}
		r.Discard = append([]model.Card{top}, r.Discard...)
		out.LogEntries = append(out.LogEntries, fmt.Sprintf("Start card: %s", FormatCard(top)))
	}

	r.Status = model.StatusActive
	return out
}
