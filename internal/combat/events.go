package combat

import (
	"fmt"
	"strings"

	"github.com/louisbranch/skirmish/internal/core/dice"
)

// Capture selects how much of an encounter is recorded.
type Capture int

const (
	// CaptureNone keeps only running totals on combatants.
	CaptureNone Capture = iota
	// CaptureLean adds one RoundSummary per round.
	CaptureLean
	// CaptureFull adds every Event as well as round summaries.
	CaptureFull
)

func (c Capture) String() string {
	switch c {
	case CaptureLean:
		return "lean"
	case CaptureFull:
		return "full"
	}
	return "none"
}

// ParseCapture maps "none", "lean" or "full" to a Capture.
func ParseCapture(name string) (Capture, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CaptureNone, nil
	case "lean":
		return CaptureLean, nil
	case "full":
		return CaptureFull, nil
	}
	return 0, validationFailed("unknown capture level %q", name)
}

// EventKind tags an Event.
type EventKind int

const (
	EventRoundStart EventKind = iota
	EventTurnStart
	EventTurnSkipped
	EventAttackHit
	EventAttackMiss
	EventDamage
	EventHeal
	EventBuffApplied
	EventBuffExpired
	EventConcentrationBroken
	EventDeath
	EventResourceConsumed
	EventReaction
	EventSave
)

var eventNames = [...]string{
	"round_start", "turn_start", "turn_skipped", "attack_hit", "attack_miss",
	"damage", "heal", "buff_applied", "buff_expired", "concentration_broken",
	"death", "resource_consumed", "reaction", "save",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// RollDetail records a d20 test. AC holds the DC for saves.
type RollDetail struct {
	Natural int
	Rolls   []int
	Total   int
	AC      int
	Crit    bool
	Mode    dice.Mode
}

// Event is an immutable record of one thing that happened.
type Event struct {
	Kind    EventKind
	Round   int
	Turn    int
	Actor   string
	Target  string
	Action  string
	Amount  int
	Success bool
	Detail  string
	Roll    *RollDetail
}

// String renders a one-line narrative form of the event.
func (e Event) String() string {
	prefix := fmt.Sprintf("[r%d t%d] ", e.Round, e.Turn)
	switch e.Kind {
	case EventRoundStart:
		return prefix + "round starts"
	case EventTurnStart:
		return prefix + e.Actor + " starts its turn"
	case EventTurnSkipped:
		return prefix + e.Actor + " skips its turn (" + e.Detail + ")"
	case EventAttackHit, EventAttackMiss:
		verb := "misses"
		if e.Kind == EventAttackHit {
			verb = "hits"
		}
		s := prefix + e.Actor + " " + verb + " " + e.Target + " with " + e.Action
		if e.Roll != nil {
			s += fmt.Sprintf(" (d20 %d, total %d vs AC %d", e.Roll.Natural, e.Roll.Total, e.Roll.AC)
			if e.Roll.Crit {
				s += ", critical"
			}
			s += ")"
		}
		return s
	case EventDamage:
		return fmt.Sprintf("%s%s takes %d damage from %s", prefix, e.Target, e.Amount, e.Actor)
	case EventHeal:
		return fmt.Sprintf("%s%s heals %s for %d", prefix, e.Actor, e.Target, e.Amount)
	case EventBuffApplied:
		return prefix + e.Actor + " applies " + e.Detail + " to " + e.Target
	case EventBuffExpired:
		return prefix + e.Detail + " on " + e.Target + " ends"
	case EventConcentrationBroken:
		return prefix + e.Actor + " loses concentration on " + e.Detail
	case EventDeath:
		return prefix + e.Target + " drops to 0 HP"
	case EventResourceConsumed:
		return fmt.Sprintf("%s%s spends %d %s", prefix, e.Actor, e.Amount, e.Detail)
	case EventReaction:
		return prefix + e.Actor + " reacts with " + e.Action
	case EventSave:
		result := "fails"
		if e.Success {
			result = "succeeds on"
		}
		return fmt.Sprintf("%s%s %s a %s save (%d)", prefix, e.Actor, result, e.Detail, e.Amount)
	}
	return prefix + e.Kind.String()
}

// CombatantRound is one combatant's totals for a round.
type CombatantRound struct {
	ID          string
	DamageDealt int
	DamageTaken int
	HealingDone int
	HP          int
}

// RoundSummary is the lean record of one round.
type RoundSummary struct {
	Round      int
	Combatants []CombatantRound
	Deaths     []string
	Survivors  [2]int
}

type roundStat struct {
	dealt, taken, healed int
}

// emit stamps the event with the current round and turn and keeps it when
// full capture is on.
func (tc *TurnContext) emit(e Event) {
	if tc.Capture != CaptureFull {
		return
	}
	e.Round = tc.Round
	e.Turn = tc.Turn
	tc.pending = append(tc.pending, e)
}

// Pending returns events emitted since the last drain.
func (tc *TurnContext) Pending() []Event { return tc.pending }

// DrainPending moves pending events into history and returns them.
func (tc *TurnContext) DrainPending() []Event {
	drained := tc.pending
	tc.history = append(tc.history, drained...)
	tc.pending = nil
	return drained
}

// Events returns every drained event in order.
func (tc *TurnContext) Events() []Event { return tc.history }

// Summaries returns the lean round summaries recorded so far.
func (tc *TurnContext) Summaries() []RoundSummary { return tc.summaries }

// recordDamage tracks dealt damage including temp HP absorbed and taken
// damage as HP actually lost.
func (tc *TurnContext) recordDamage(source, target *Combatant, dealt, lost int) {
	target.DamageTaken += lost
	if source != nil {
		source.DamageDealt += dealt
	}
	if tc.Capture == CaptureNone || tc.round == nil {
		return
	}
	tc.round[target.Index].taken += lost
	if source != nil {
		tc.round[source.Index].dealt += dealt
	}
}

func (tc *TurnContext) recordHeal(source *Combatant, amount int) {
	source.HealingDone += amount
	if tc.Capture == CaptureNone || tc.round == nil {
		return
	}
	tc.round[source.Index].healed += amount
}

func (tc *TurnContext) recordDeath(c *Combatant) {
	c.DeathRound = tc.Round
	if tc.Capture != CaptureNone {
		tc.deaths = append(tc.deaths, c.ID)
	}
}

// closeRound appends the lean summary for the current round and resets the
// per-round counters.
func (tc *TurnContext) closeRound() {
	if tc.Capture == CaptureNone {
		return
	}
	if len(tc.round) != len(tc.Combatants) {
		tc.round = make([]roundStat, len(tc.Combatants))
	}
	summary := RoundSummary{
		Round:      tc.Round,
		Combatants: make([]CombatantRound, len(tc.Combatants)),
		Deaths:     tc.deaths,
		Survivors:  [2]int{tc.Living(TeamParty), tc.Living(TeamMonsters)},
	}
	for i, c := range tc.Combatants {
		stat := tc.round[i]
		summary.Combatants[i] = CombatantRound{
			ID:          c.ID,
			DamageDealt: stat.dealt,
			DamageTaken: stat.taken,
			HealingDone: stat.healed,
			HP:          max(0, c.HP),
		}
	}
	tc.summaries = append(tc.summaries, summary)
	tc.deaths = nil
	clear(tc.round)
}
