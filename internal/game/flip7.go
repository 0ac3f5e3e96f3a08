package game

import (
	"fmt"
	"strconv"
	"strings"

	"cardtable/internal/config"
	"cardtable/internal/model"
)

// Flip7Engine implements the push-your-luck rules: per-round hit/stay
// with duplicate busts, action cards that demand a follow-up target
// selection, multiplier/modifier scoring, and round-to-round play up to a
// cumulative win threshold.
type Flip7Engine struct {
	cfg config.Flip7Config
}

func NewFlip7Engine(cfg config.Flip7Config) *Flip7Engine {
	return &Flip7Engine{cfg: cfg}
}

func (e *Flip7Engine) Kind() model.GameKind { return model.GameFlip7 }
func (e *Flip7Engine) Name() string         { return "Flip7" }

func newFlip7State() *model.Flip7State {
	return &model.Flip7State{
		Stayed:        make(map[string]bool),
		Busted:        make(map[string]bool),
		Frozen:        make(map[string]bool),
		SecondChance:  make(map[string]bool),
		Unique:        make(map[string]map[string]bool),
		NumericScore:  make(map[string]int),
		ModifierScore: make(map[string]int),
		Doubled:       make(map[string]bool),
		RoundScores:   make(map[string]int),
		Cumulative:    make(map[string]int),
	}
}

// Initialize starts a fresh game: zeroed cumulative scores, new deck, and
// an opening card dealt to every seat through the normal classification
// path (so an action card dealt at round start resolves like any other).
func (e *Flip7Engine) Initialize(r *model.Room) model.Outcome {
	r.Deck = BuildDeck(model.GameFlip7)
	r.Discard = nil
	r.Direction = 1
	r.TurnIndex = 0
	r.Winner = ""
	r.Flip7 = newFlip7State()
	for _, pid := range r.Order {
		r.Players[pid].Hand = nil
		r.Flip7.Cumulative[pid] = 0
	}

	out := model.Ok("Game started")
	r.Status = model.StatusActive
	e.dealOpening(r, &out)
	return out
}

// beginRound resets the per-round sub-state, folds every hand back into
// the discard, and redeals one opening card per player.
func (e *Flip7Engine) beginRound(r *model.Room, out *model.Outcome) {
	st := r.Flip7
	for _, pid := range r.Order {
		p := r.Players[pid]
		r.Discard = append(r.Discard, p.Hand...)
		p.Hand = nil
	}

	st.Stayed = make(map[string]bool)
	st.Busted = make(map[string]bool)
	st.Frozen = make(map[string]bool)
	st.SecondChance = make(map[string]bool)
	st.Unique = make(map[string]map[string]bool)
	st.NumericScore = make(map[string]int)
	st.ModifierScore = make(map[string]int)
	st.Doubled = make(map[string]bool)
	st.RoundScores = make(map[string]int)
	st.RoundOver = false
	st.PendingFlip3 = ""
	st.PendingFreeze = ""
	st.PendingSecondChanceUse = ""
	st.PendingSecondChanceGift = ""
	st.PendingCard = ""
	st.OpeningDeals = nil
	st.DealPending = false

	r.TurnIndex = 0
	r.Status = model.StatusActive
	e.dealOpening(r, out)
}

func (e *Flip7Engine) dealOpening(r *model.Room, out *model.Outcome) {
	r.Flip7.OpeningDeals = append([]string{}, r.Order...)
	e.resumeDeal(r, out)
}

// resumeDeal hands out owed opening cards one seat at a time. A card that
// opens a selection pauses the deal; afterSelection picks it back up.
// Seats that left play while waiting (frozen or busted through someone
// else's card) are skipped.
func (e *Flip7Engine) resumeDeal(r *model.Room, out *model.Outcome) {
	st := r.Flip7
	for len(st.OpeningDeals) > 0 {
		if st.RoundOver {
			st.OpeningDeals = nil
			return
		}
		if e.hasPending(st) {
			st.DealPending = true
			return
		}
		pid := st.OpeningDeals[0]
		st.OpeningDeals = st.OpeningDeals[1:]
		if !e.inPlay(st, pid) {
			continue
		}
		e.classify(r, pid, out, false)
	}
	if st.RoundOver {
		return
	}
	if e.hasPending(st) {
		st.DealPending = true
		return
	}
	e.ensureEligibleTurn(r, out)
}

func (e *Flip7Engine) inPlay(st *model.Flip7State, pid string) bool {
	return !st.Stayed[pid] && !st.Busted[pid] && !st.Frozen[pid]
}

func (e *Flip7Engine) hasPending(st *model.Flip7State) bool {
	return st.PendingFlip3 != "" || st.PendingFreeze != "" ||
		st.PendingSecondChanceUse != "" || st.PendingSecondChanceGift != ""
}

func (e *Flip7Engine) roundScore(st *model.Flip7State, pid string) int {
	n := st.NumericScore[pid]
	if st.Doubled[pid] {
		n *= 2
	}
	return n + st.ModifierScore[pid]
}

// classify draws one card for pid and applies it. forced marks draws
// dealt by a Flip3 resolution, where no nested selection may be opened:
// Freeze applies to the drawer directly, a nested Flip3 is discarded, and
// a Second Chance that cannot be held is discarded.
func (e *Flip7Engine) classify(r *model.Room, pid string, out *model.Outcome, forced bool) {
	st := r.Flip7
	p := r.Players[pid]

	card, ok := DrawOne(r)
	if !ok {
		out.LogEntries = append(out.LogEntries, "The deck is exhausted, round over")
		e.endRound(r, out)
		return
	}

	// Only a leading digit marks a number card; Atoi alone would also
	// swallow the "+N" modifiers.
	if rank := string(card); rank[0] >= '0' && rank[0] <= '9' {
		value, _ := strconv.Atoi(rank)
		if st.Unique[pid] != nil && st.Unique[pid][rank] {
			e.applyDuplicate(r, pid, card, out, forced)
		} else {
			if st.Unique[pid] == nil {
				st.Unique[pid] = make(map[string]bool)
			}
			st.Unique[pid][rank] = true
			st.NumericScore[pid] += value
			p.Hand = append(p.Hand, card)
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped a %s", p.Name, rank))
			if len(st.Unique[pid]) == 7 {
				st.ModifierScore[pid] += e.cfg.SevenBonus
				st.RoundScores[pid] = e.roundScore(st, pid)
				out.LogEntries = append(out.LogEntries,
					fmt.Sprintf("%s flipped 7 unique cards! +%d bonus, round over", p.Name, e.cfg.SevenBonus))
				e.endRound(r, out)
				return
			}
		}
		st.RoundScores[pid] = e.roundScore(st, pid)
		return
	}

	switch {
	case card == "x2":
		st.Doubled[pid] = true
		p.Hand = append(p.Hand, card)
		out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped x2, score doubled", p.Name))

	case strings.HasPrefix(string(card), "+"):
		bonus, _ := strconv.Atoi(strings.TrimPrefix(string(card), "+"))
		st.ModifierScore[pid] += bonus
		p.Hand = append(p.Hand, card)
		out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped %s", p.Name, card))

	case card == "Freeze":
		r.Discard = append([]model.Card{card}, r.Discard...)
		if forced {
			st.Frozen[pid] = true
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped Freeze and is frozen", p.Name))
			out.Notices = append(out.Notices, model.Notice{PlayerID: pid, Message: "You are frozen for this round."})
		} else {
			st.PendingFreeze = pid
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped Freeze and must choose who to freeze", p.Name))
		}

	case card == "Flip3":
		r.Discard = append([]model.Card{card}, r.Discard...)
		if forced {
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("Flip3 flipped by %s during a forced draw is discarded", p.Name))
		} else if len(e.otherInPlay(r, pid)) == 0 {
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped Flip3 with no other targets and flips three more", p.Name))
			e.forcedDraws(r, pid, out)
		} else {
			st.PendingFlip3 = pid
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped Flip3 and must choose a target", p.Name))
		}

	case card == "SecondChance":
		if !st.SecondChance[pid] {
			st.SecondChance[pid] = true
			p.Hand = append(p.Hand, card)
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s holds a Second Chance", p.Name))
		} else if forced || len(e.giftTargets(r, pid)) == 0 {
			r.Discard = append([]model.Card{card}, r.Discard...)
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s already holds a Second Chance, the extra one is discarded", p.Name))
		} else {
			p.Hand = append(p.Hand, card)
			st.PendingSecondChanceGift = pid
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s drew a second Second Chance and must gift it", p.Name))
		}
	}

	st.RoundScores[pid] = e.roundScore(st, pid)
}

func (e *Flip7Engine) applyDuplicate(r *model.Room, pid string, card model.Card, out *model.Outcome, forced bool) {
	st := r.Flip7
	p := r.Players[pid]
	if st.SecondChance[pid] {
		if forced {
			// No confirmation mid-resolution; the token burns automatically.
			e.consumeSecondChance(r, pid, card)
			out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s used a Second Chance on a duplicate %s", p.Name, card))
			return
		}
		st.PendingSecondChanceUse = pid
		st.PendingCard = card
		out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s flipped a duplicate %s and holds a Second Chance", p.Name, card))
		out.Notices = append(out.Notices, model.Notice{PlayerID: pid, Message: fmt.Sprintf("Duplicate %s! Confirm your Second Chance.", card)})
		return
	}
	// Round score stays at its pre-bust value.
	p.Hand = append(p.Hand, card)
	st.Busted[pid] = true
	out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s busted on a duplicate %s", p.Name, card))
	out.Notices = append(out.Notices, model.Notice{PlayerID: pid, Message: "You busted!"})
}

// consumeSecondChance retires the token and the duplicate card.
func (e *Flip7Engine) consumeSecondChance(r *model.Room, pid string, duplicate model.Card) {
	st := r.Flip7
	p := r.Players[pid]
	st.SecondChance[pid] = false
	for i, c := range p.Hand {
		if c == "SecondChance" {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			break
		}
	}
	r.Discard = append([]model.Card{"SecondChance", duplicate}, r.Discard...)
}

// forcedDraws runs the bounded Flip3 loop: up to three draws, stopping
// early when the target leaves play or the round ends.
func (e *Flip7Engine) forcedDraws(r *model.Room, targetID string, out *model.Outcome) {
	st := r.Flip7
	for i := 0; i < 3; i++ {
		if st.RoundOver || !e.inPlay(st, targetID) {
			return
		}
		e.classify(r, targetID, out, true)
	}
}

func (e *Flip7Engine) otherInPlay(r *model.Room, pid string) []string {
	var out []string
	for _, other := range r.Order {
		if other != pid && e.inPlay(r.Flip7, other) {
			out = append(out, other)
		}
	}
	return out
}

func (e *Flip7Engine) giftTargets(r *model.Room, pid string) []string {
	var out []string
	for _, other := range e.otherInPlay(r, pid) {
		if !r.Flip7.SecondChance[other] {
			out = append(out, other)
		}
	}
	return out
}

// advanceEligible moves the turn to the next player still in play,
// forcing the round to end when nobody is.
func (e *Flip7Engine) advanceEligible(r *model.Room, out *model.Outcome) {
	st := r.Flip7
	n := len(r.Order)
	for i := 1; i <= n; i++ {
		idx := (r.TurnIndex + i) % n
		if e.inPlay(st, r.Order[idx]) {
			r.TurnIndex = idx
			return
		}
	}
	e.endRound(r, out)
}

// ensureEligibleTurn repairs the turn pointer when the current holder
// left play through someone else's action.
func (e *Flip7Engine) ensureEligibleTurn(r *model.Room, out *model.Outcome) {
	if e.inPlay(r.Flip7, r.CurrentTurnID()) {
		return
	}
	e.advanceEligible(r, out)
}

func (e *Flip7Engine) endRound(r *model.Room, out *model.Outcome) {
	st := r.Flip7
	st.RoundOver = true
	st.PendingFlip3 = ""
	st.PendingFreeze = ""
	st.PendingSecondChanceUse = ""
	st.PendingSecondChanceGift = ""
	st.OpeningDeals = nil
	st.DealPending = false
	if st.PendingCard != "" {
		r.Discard = append([]model.Card{st.PendingCard}, r.Discard...)
		st.PendingCard = ""
	}

	var summary []string
	for _, pid := range r.Order {
		st.Cumulative[pid] += st.RoundScores[pid]
		summary = append(summary, fmt.Sprintf("%s %d (%d total)", r.Players[pid].Name, st.RoundScores[pid], st.Cumulative[pid]))
	}
	out.LogEntries = append(out.LogEntries, "Round over: "+strings.Join(summary, ", "))

	winner := ""
	best := 0
	for _, pid := range r.Order {
		if st.Cumulative[pid] >= e.cfg.WinThreshold && (winner == "" || st.Cumulative[pid] > best) {
			winner = pid
			best = st.Cumulative[pid]
		}
	}
	if winner != "" {
		r.Status = model.StatusFinished
		r.Winner = winner
		out.LogEntries = append(out.LogEntries, fmt.Sprintf("%s wins with %d points!", r.Players[winner].Name, best))
		return
	}
	r.Status = model.StatusBetween
}

// selectionGuard validates that pid owns the given pending slot.
func selectionGuard(pending, pid string) *model.Outcome {
	if pending != pid {
		out := model.Fail(model.ErrIllegalMove, "no such selection is pending for you")
		return &out
	}
	return nil
}

func (e *Flip7Engine) Hit(r *model.Room, playerID string) model.Outcome {
	st := r.Flip7
	if e.hasPending(st) {
		return model.Fail(model.ErrIllegalMove, "waiting for a pending selection")
	}
	if !e.inPlay(st, playerID) {
		return model.Fail(model.ErrIllegalMove, "you are out of this round")
	}
	out := model.Ok()
	e.classify(r, playerID, &out, false)
	if !st.RoundOver && !e.hasPending(st) {
		e.advanceEligible(r, &out)
	}
	return out
}

func (e *Flip7Engine) Stay(r *model.Room, playerID string) model.Outcome {
	st := r.Flip7
	if e.hasPending(st) {
		return model.Fail(model.ErrIllegalMove, "waiting for a pending selection")
	}
	if !e.inPlay(st, playerID) {
		return model.Fail(model.ErrIllegalMove, "you are out of this round")
	}
	st.Stayed[playerID] = true
	out := model.Ok(fmt.Sprintf("%s stayed with %d points", r.Players[playerID].Name, st.RoundScores[playerID]))
	if !st.RoundOver {
		e.advanceEligible(r, &out)
	}
	return out
}

func (e *Flip7Engine) SelectFlip3Target(r *model.Room, playerID, targetID string) model.Outcome {
	st := r.Flip7
	if guard := selectionGuard(st.PendingFlip3, playerID); guard != nil {
		return *guard
	}
	target := r.Players[targetID]
	if target == nil || targetID == playerID || !e.inPlay(st, targetID) {
		return model.Fail(model.ErrIllegalMove, "invalid Flip3 target")
	}
	st.PendingFlip3 = ""
	out := model.Ok(fmt.Sprintf("%s targets %s with Flip3", r.Players[playerID].Name, target.Name))
	out.Notices = append(out.Notices, model.Notice{PlayerID: targetID, Message: fmt.Sprintf("%s hit you with Flip3: you flip three cards.", r.Players[playerID].Name)})
	e.forcedDraws(r, targetID, &out)
	e.afterSelection(r, playerID, &out)
	return out
}

func (e *Flip7Engine) SelectFreezeTarget(r *model.Room, playerID, targetID string) model.Outcome {
	st := r.Flip7
	if guard := selectionGuard(st.PendingFreeze, playerID); guard != nil {
		return *guard
	}
	target := r.Players[targetID]
	if target == nil || !e.inPlay(st, targetID) {
		return model.Fail(model.ErrIllegalMove, "invalid Freeze target")
	}
	st.PendingFreeze = ""
	st.Frozen[targetID] = true
	out := model.Ok(fmt.Sprintf("%s froze %s", r.Players[playerID].Name, target.Name))
	if targetID != playerID {
		out.Notices = append(out.Notices, model.Notice{PlayerID: targetID, Message: fmt.Sprintf("%s froze you for this round.", r.Players[playerID].Name)})
	}
	e.afterSelection(r, playerID, &out)
	return out
}

func (e *Flip7Engine) UseSecondChance(r *model.Room, playerID string) model.Outcome {
	st := r.Flip7
	if guard := selectionGuard(st.PendingSecondChanceUse, playerID); guard != nil {
		return *guard
	}
	duplicate := st.PendingCard
	st.PendingSecondChanceUse = ""
	st.PendingCard = ""
	e.consumeSecondChance(r, playerID, duplicate)
	out := model.Ok(fmt.Sprintf("%s used their Second Chance on a duplicate %s", r.Players[playerID].Name, duplicate))
	e.afterSelection(r, playerID, &out)
	return out
}

func (e *Flip7Engine) GiftSecondChance(r *model.Room, playerID, targetID string) model.Outcome {
	st := r.Flip7
	if guard := selectionGuard(st.PendingSecondChanceGift, playerID); guard != nil {
		return *guard
	}
	target := r.Players[targetID]
	if target == nil || targetID == playerID || !e.inPlay(st, targetID) || st.SecondChance[targetID] {
		return model.Fail(model.ErrIllegalMove, "invalid Second Chance recipient")
	}
	p := r.Players[playerID]
	st.PendingSecondChanceGift = ""
	for i, c := range p.Hand {
		if c == "SecondChance" {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			break
		}
	}
	target.Hand = append(target.Hand, "SecondChance")
	st.SecondChance[targetID] = true
	out := model.Ok(fmt.Sprintf("%s gifted a Second Chance to %s", p.Name, target.Name))
	out.Notices = append(out.Notices, model.Notice{PlayerID: targetID, Message: fmt.Sprintf("%s gifted you a Second Chance.", p.Name)})
	e.afterSelection(r, playerID, &out)
	return out
}

// afterSelection advances the turn once a pending selection resolves. A
// selection opened by the opening deal instead resumes the deal and never
// consumes the selector's turn.
func (e *Flip7Engine) afterSelection(r *model.Room, selector string, out *model.Outcome) {
	st := r.Flip7
	fromDeal := st.DealPending
	st.DealPending = false
	if st.RoundOver || e.hasPending(st) {
		return
	}
	if len(st.OpeningDeals) > 0 {
		e.resumeDeal(r, out)
		return
	}
	if !fromDeal && r.CurrentTurnID() == selector {
		e.advanceEligible(r, out)
		return
	}
	e.ensureEligibleTurn(r, out)
}

// HandleLeave scrubs a removed player out of the round sub-state, clears
// any selection the round was stalled on for them, and repairs the turn.
func (e *Flip7Engine) HandleLeave(r *model.Room, playerID string, out *model.Outcome) {
	st := r.Flip7
	if st == nil {
		return
	}
	delete(st.Stayed, playerID)
	delete(st.Busted, playerID)
	delete(st.Frozen, playerID)
	delete(st.SecondChance, playerID)
	delete(st.Unique, playerID)
	delete(st.NumericScore, playerID)
	delete(st.ModifierScore, playerID)
	delete(st.Doubled, playerID)
	delete(st.RoundScores, playerID)
	delete(st.Cumulative, playerID)

	if st.PendingFlip3 == playerID {
		st.PendingFlip3 = ""
	}
	if st.PendingFreeze == playerID {
		st.PendingFreeze = ""
	}
	if st.PendingSecondChanceGift == playerID {
		st.PendingSecondChanceGift = ""
	}
	if st.PendingSecondChanceUse == playerID {
		st.PendingSecondChanceUse = ""
		if st.PendingCard != "" {
			r.Discard = append([]model.Card{st.PendingCard}, r.Discard...)
			st.PendingCard = ""
		}
	}
	for i, pid := range st.OpeningDeals {
		if pid == playerID {
			st.OpeningDeals = append(st.OpeningDeals[:i], st.OpeningDeals[i+1:]...)
			break
		}
	}
	if !e.hasPending(st) {
		st.DealPending = false
	}

	if r.Status == model.StatusActive && !st.RoundOver && len(r.Order) > 0 {
		if !e.hasPending(st) && len(st.OpeningDeals) > 0 {
			e.resumeDeal(r, out)
			return
		}
		e.ensureEligibleTurn(r, out)
	}
}

func (e *Flip7Engine) StartNextRound(r *model.Room, playerID string) model.Outcome {
	if r.Status != model.StatusBetween {
		return model.Fail(model.ErrGameNotActive, "no round waiting to start")
	}
	out := model.Ok("Next round!")
	e.beginRound(r, &out)
	return out
}
