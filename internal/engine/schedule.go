package engine

import (
	"communityprojects/pkg/store"

	"github.com/sirupsen/logrus"
)

const (
	stepStartVoting = "start_voting_period"
	stepCloseBallot = "close_ballot"
)

// OnInitialize advances the engine to block height and runs the transitions
// due at it: expiring milestone periods open ballots, then expiring ballots
// are tallied. It must run before any call of the same block.
//
// A failing step is rolled back, logged and recorded as a dead letter; the
// other projects of the block still advance.
func (e *Engine) OnInitialize(height BlockNumber) {
	e.height.Set(height)

	for _, id := range e.milestoneQueue.Take(height) {
		e.step(id, stepStartVoting, func() error {
			return e.startVotingPeriod(id)
		})
	}
	for _, id := range e.votingQueue.Take(height) {
		e.step(id, stepCloseBallot, func() error {
			return e.closeBallot(id)
		})
	}
}

func (e *Engine) step(id ProjectID, name string, fn func() error) {
	err := e.atomic(fn)
	if err == nil {
		return
	}
	dl := DeadLetter{
		Height:    e.height.Get(),
		ProjectID: id,
		Step:      name,
		Error:     err.Error(),
	}
	e.deadLetters = append(e.deadLetters, dl)
	e.log.WithFields(logrus.Fields{
		"project_id": id,
		"height":     dl.Height,
		"step":       name,
		"error":      err.Error(),
	}).Error("tick step failed, project may be stuck")
	if e.onDeadLetter != nil {
		e.onDeadLetter(dl)
	}
}

// MilestonePeriod is the number of blocks between ballots. Projects longer
// than MaxMilestones months get proportionally longer periods.
func (e *Engine) MilestonePeriod(duration uint32) BlockNumber {
	if duration > e.cfg.MaxMilestones {
		return e.cfg.MilestonePeriod * BlockNumber(duration) / BlockNumber(e.cfg.MaxMilestones)
	}
	return e.cfg.MilestonePeriod
}

func (e *Engine) scheduleMilestonePeriod(id ProjectID, duration uint32) (BlockNumber, error) {
	endsAt := e.height.Get() + e.MilestonePeriod(duration)
	if err := e.enqueue(e.milestoneQueue, endsAt, id); err != nil {
		return 0, err
	}
	return endsAt, nil
}

// enqueue appends id to the bucket of height. Buckets are bounded.
func (e *Engine) enqueue(queue *store.Map[BlockNumber, []ProjectID], height BlockNumber, id ProjectID) error {
	bucket := queue.GetOrZero(height)
	if len(bucket) >= e.cfg.MaxOngoingProjects {
		return ErrTooManyProjects
	}
	next := make([]ProjectID, len(bucket), len(bucket)+1)
	copy(next, bucket)
	queue.Insert(height, append(next, id))
	return nil
}

// MilestoneQueue returns the projects whose milestone period ends at height
func (e *Engine) MilestoneQueue(height BlockNumber) []ProjectID {
	return append([]ProjectID(nil), e.milestoneQueue.GetOrZero(height)...)
}

// VotingQueue returns the projects whose ballot closes at height
func (e *Engine) VotingQueue(height BlockNumber) []ProjectID {
	return append([]ProjectID(nil), e.votingQueue.GetOrZero(height)...)
}
