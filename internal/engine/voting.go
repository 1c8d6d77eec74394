package engine

import (
	"communityprojects/pkg/chain"

	"github.com/sirupsen/logrus"
)

// VoteOnMilestone adds the voter's voting power to the open ballot of a
// project. Each holder votes at most once per ballot.
func (e *Engine) VoteOnMilestone(voter chain.AccountID, id ProjectID, vote Vote) error {
	return e.atomic(func() error {
		return e.voteOnMilestone(voter, id, vote)
	})
}

func (e *Engine) voteOnMilestone(voter chain.AccountID, id ProjectID, vote Vote) error {
	if err := e.ensureWhitelisted(voter); err != nil {
		return err
	}
	stats, ok := e.ballots.Get(id)
	if !ok {
		return ErrNoOngoingVotingPeriod
	}
	key := accountKey{id, voter}
	if !e.holders.GetOrZero(key) {
		return ErrInsufficientPermission
	}
	if e.voted.GetOrZero(key) {
		return ErrAlreadyVoted
	}

	power := e.votingPower.GetOrZero(key)
	var err error
	switch vote {
	case VoteYes:
		stats.Yes, err = stats.Yes.add(power)
	default:
		stats.No, err = stats.No.add(power)
	}
	if err != nil {
		return err
	}
	e.ballots.Insert(id, stats)
	e.voted.Insert(key, true)
	e.emit(VotedOnMilestone{ProjectID: id, Voter: voter, Vote: vote, Power: power})
	return nil
}

// startVotingPeriod opens an empty ballot and schedules its close
func (e *Engine) startVotingPeriod(id ProjectID) error {
	if !e.projects.Contains(id) {
		return ErrProjectNotFound
	}
	endsAt := e.height.Get() + e.cfg.VotingTime
	if err := e.enqueue(e.votingQueue, endsAt, id); err != nil {
		return err
	}
	e.ballots.Insert(id, VoteStats{})
	e.emit(VotingPeriodStarted{ProjectID: id, EndsAt: endsAt})
	return nil
}

// closeBallot tallies the open ballot. A passing ballot releases a milestone,
// a failing one adds a strike. While milestones remain the next milestone
// period is scheduled; otherwise the project ends successfully.
func (e *Engine) closeBallot(id ProjectID) error {
	stats, ok := e.ballots.Remove(id)
	if !ok {
		return ErrNoOngoingVotingPeriod
	}
	e.clearVotes(id)

	project, ok := e.projects.Get(id)
	if !ok {
		return ErrProjectNotFound
	}

	fields := logrus.Fields{"project_id": id, "yes": stats.Yes, "no": stats.No}
	if stats.Passed() {
		e.log.WithFields(fields).Info("milestone approved")
		if err := e.distributeFunds(id, &project); err != nil {
			return err
		}
	} else {
		e.log.WithFields(fields).Info("milestone rejected")
		ended, err := e.checkStrikes(id, &project, stats)
		if err != nil || ended {
			return err
		}
	}

	if project.RemainingMilestones >= 1 {
		e.projects.Insert(id, project)
		endsAt, err := e.scheduleMilestonePeriod(id, project.Duration)
		if err != nil {
			return err
		}
		e.emit(MilestonePeriodStarted{ProjectID: id, EndsAt: endsAt})
		return nil
	}
	return e.deleteProject(id)
}

func (e *Engine) clearVotes(id ProjectID) {
	e.voted.RemoveIf(func(k accountKey, _ bool) bool {
		return k.Project == id
	})
}
