package engine

import (
	"fmt"

	"github.com/talgya/starbase/internal/ship"
)

// TakeoverFinisher completes boarding takeovers that have run their course.
type TakeoverFinisher struct {
	Store TakeoverStore
	Turns uint64 // Turns a takeover needs
}

func (TakeoverFinisher) Name() string { return "takeover" }

// Ready reports whether the takeover can be completed on turn.
func (f TakeoverFinisher) Ready(t *ship.Takeover, turn uint64) bool {
	return t != nil && turn >= t.StartTurn+f.Turns
}

func (f TakeoverFinisher) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	if !f.Ready(s.Takeover, tc.Turn) {
		return Continue, nil
	}

	res, err := f.Store.CompleteTakeover(tc.Ctx, s.Takeover, s.UserID)
	if err != nil {
		return Continue, fmt.Errorf("complete takeover %d: %w", s.Takeover.ID, err)
	}
	s.Takeover = nil
	tc.Report.Add("Takeover of %s completed", res.TargetName)

	if res.PreviousOwner != s.UserID {
		tc.Notices = append(tc.Notices, Message{
			Sender:    ship.UserNoOne,
			Recipient: res.PreviousOwner,
			Text:      fmt.Sprintf("The %s has been taken over by %s", res.TargetName, s.Name),
			Category:  CategoryShip,
			Href:      Href(res.TargetID),
			Tick:      tc.Turn,
		})
	}
	return Continue, nil
}
