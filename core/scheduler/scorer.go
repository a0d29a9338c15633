package scheduler

import (
	"math"
	"slices"

	"github.com/kilianp07/slotplan/core/model"
)

const (
	// MaxGapDays is the longest a project with work left and a live
	// deadline may go without a slot.
	MaxGapDays = 14
	// twoWeekLeadDays makes a project urgent before the ceiling so that a
	// continuity run spanning a weekend cannot push it past MaxGapDays.
	twoWeekLeadDays = 5
	// criticalLeadDays is the margin at which a starving project preempts a
	// continuity run in progress.
	criticalLeadDays = 3

	continuityDecay     = 0.15
	continuityThreshold = 0.3
	// MaxRunSlots caps consecutive slots of one project while another
	// project of the same tier could take the slot.
	MaxRunSlots = 10

	eddWeight      = 2.0
	eddHorizonDays = 365.0
)

// Reason explains why a slot went to its project.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonContinuity
	ReasonTwoWeek
	ReasonScore
	ReasonOverdue
	ReasonSequence
	ReasonWaiting
)

func (r Reason) String() string {
	switch r {
	case ReasonContinuity:
		return "continuity"
	case ReasonTwoWeek:
		return "two_week"
	case ReasonScore:
		return "score"
	case ReasonOverdue:
		return "overdue"
	case ReasonSequence:
		return "sequence"
	case ReasonWaiting:
		return "waiting"
	default:
		return "none"
	}
}

// Choice is the outcome of selecting a project for one slot.
type Choice struct {
	// Index is the registry index of the project, -1 for an idle slot.
	Index  int
	Reason Reason
	// tier lists the projects that competed for the slot.
	tier []int
}

// ContinuityBonus returns the bonus of a project that already holds the
// previous consecutive slots. It reaches zero after six or seven slots.
func ContinuityBonus(consecutive int) float64 {
	return math.Max(0, 1.0-float64(consecutive)*continuityDecay)
}

// continuityActive reports whether the bonus is still strong enough to keep
// the current project.
func continuityActive(consecutive int) bool {
	return consecutive > 0 && ContinuityBonus(consecutive) > continuityThreshold
}

// TwoWeekUrgency rises steeply as elapsed approaches MaxGapDays. The second
// result reports whether the project must be taken now.
func TwoWeekUrgency(elapsedDays int) (float64, bool) {
	if elapsedDays <= 0 {
		return 0, false
	}
	u := math.Pow(float64(elapsedDays)/MaxGapDays, 3)
	return u, elapsedDays >= MaxGapDays-twoWeekLeadDays
}

// EDDScore maps calendar days to the deadline onto [0,1], higher for sooner
// deadlines.
func EDDScore(daysUntil int) float64 {
	d := math.Min(math.Max(float64(daysUntil), 0), eddHorizonDays)
	return 1 - d/eddHorizonDays
}

// pool partitions the projects that may take slot.
type pool struct {
	eligible []int
	onTime   []int
	tier     []int
}

func (s *State) pool(slot model.Slot) pool {
	var pl pool
	for i := range s.projects {
		if s.ps[i].remaining <= 0 || !s.isStarted(i, slot.Date) {
			continue
		}
		pl.eligible = append(pl.eligible, i)
		if s.onTime(i, slot.Date) {
			pl.onTime = append(pl.onTime, i)
		}
	}
	if len(pl.onTime) == 0 {
		return pl
	}
	top := s.projects[pl.onTime[0]].Priority
	for _, i := range pl.onTime[1:] {
		if p := s.projects[i].Priority; p > top {
			top = p
		}
	}
	for _, i := range pl.onTime {
		if s.projects[i].Priority == top {
			pl.tier = append(pl.tier, i)
		}
	}
	return pl
}

// SelectPaced picks the project for slot without mutating s.
//
// Precedence: highest priority tier among on-time projects, then a
// continuity run in progress, then two-week urgency, then the composite of
// deadline proximity, share of outstanding work and pacing credit. Overdue
// projects only take slots no on-time project can use. A project about to
// reach MaxGapDays preempts a continuity run.
func SelectPaced(s *State, slot model.Slot) Choice {
	pl := s.pool(slot)
	if len(pl.eligible) == 0 {
		return Choice{Index: -1, Reason: ReasonNone}
	}
	if len(pl.tier) == 0 {
		return Choice{Index: earliestDeadline(s, pl.eligible), Reason: ReasonOverdue}
	}

	cur, run := s.Current()
	others := slices.DeleteFunc(slices.Clone(pl.tier), func(i int) bool { return i == cur })
	if i, ok := mostUrgent(s, others, slot, MaxGapDays-criticalLeadDays); ok {
		return Choice{Index: i, Reason: ReasonTwoWeek, tier: pl.tier}
	}

	if cur >= 0 && slices.Contains(pl.tier, cur) && continuityActive(run) {
		return Choice{Index: cur, Reason: ReasonContinuity, tier: pl.tier}
	}

	cands := pl.tier
	if cur >= 0 && run >= MaxRunSlots && len(others) > 0 {
		cands = others
	}

	if i, ok := mostUrgent(s, cands, slot, MaxGapDays-twoWeekLeadDays); ok {
		return Choice{Index: i, Reason: ReasonTwoWeek, tier: pl.tier}
	}

	shares := s.shares(pl.tier)
	best, bestScore := -1, math.Inf(-1)
	for k, i := range pl.tier {
		if !slices.Contains(cands, i) {
			continue
		}
		// credit grows every slot a project waits, so it carries recency.
		score := eddWeight*EDDScore(s.projects[i].DaysUntilDeadline(slot.Date)) + shares[k] + s.ps[i].credit
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return Choice{Index: best, Reason: ReasonScore, tier: pl.tier}
}

// mostUrgent returns the candidate with the highest two-week urgency among
// those idle for at least minElapsed days. Ties go to the earlier deadline,
// then input order.
func mostUrgent(s *State, cands []int, slot model.Slot, minElapsed int) (int, bool) {
	best, bestU := -1, 0.0
	for _, i := range cands {
		d := s.elapsedDays(i, slot.Date)
		if d < minElapsed {
			continue
		}
		u, _ := TwoWeekUrgency(d)
		if best < 0 || u > bestU || (u == bestU && s.projects[i].EndDate.Before(s.projects[best].EndDate)) {
			best, bestU = i, u
		}
	}
	return best, best >= 0
}

// earliestDeadline orders overdue work by priority, then deadline, then
// input order.
func earliestDeadline(s *State, idx []int) int {
	best := idx[0]
	for _, i := range idx[1:] {
		p, b := s.projects[i], s.projects[best]
		if p.Priority > b.Priority || (p.Priority == b.Priority && p.EndDate.Before(b.EndDate)) {
			best = i
		}
	}
	return best
}
