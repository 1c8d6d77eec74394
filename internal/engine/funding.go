package engine

import (
	"fmt"

	"communityprojects/pkg/chain"

	"github.com/sirupsen/logrus"
)

// distributeFunds pays the owner one milestone. The payout comes from the
// stable pool while its share of the unpaid funds covers it, then from bonded
// capital. The last milestone also pays out the rounding remainder so the
// whole collected balance is released.
func (e *Engine) distributeFunds(id ProjectID, project *Project) error {
	if project.Milestones == 0 || project.RemainingMilestones == 0 {
		return fmt.Errorf("project %d: %w", id, ErrArithmeticUnderflow)
	}
	base := project.ProjectBalance / StableBalance(project.Milestones)
	paid, err := mulU64(uint64(base), uint64(project.Milestones-project.RemainingMilestones))
	if err != nil {
		return err
	}
	unpaid, err := project.ProjectBalance.sub(StableBalance(paid))
	if err != nil {
		return err
	}
	round := base
	if project.RemainingMilestones == 1 {
		round = unpaid
	}
	bonded, err := NativeToStable(project.BondingBalance)
	if err != nil {
		return err
	}

	stablePart, bondedPart := splitPayout(round, unpaid, bonded)
	native, err := StableToNative(bondedPart)
	if err != nil {
		return err
	}
	if err := e.assets.Transfer(e.cfg.StableAsset, e.cfg.CustodyAccount, project.Owner, uint64(stablePart)); err != nil {
		return fmt.Errorf("pay stable milestone: %w", err)
	}
	if err := e.capital.Transfer(e.cfg.CustodyAccount, project.Owner, uint64(native), true); err != nil {
		return fmt.Errorf("pay bonded milestone: %w", err)
	}
	if project.BondingBalance, err = project.BondingBalance.sub(native); err != nil {
		return err
	}
	if project.StablePaid, err = project.StablePaid.add(stablePart); err != nil {
		return err
	}

	project.RemainingMilestones--
	project.Strikes = 0
	e.emit(FundsDestributed{
		ProjectID:           id,
		Owner:               project.Owner,
		Stable:              stablePart,
		Native:              native,
		RemainingMilestones: project.RemainingMilestones,
	})
	e.log.WithFields(logrus.Fields{
		"project_id": id,
		"stable":     stablePart,
		"native":     native,
		"remaining":  project.RemainingMilestones,
	}).Info("milestone funds distributed")
	return nil
}

// splitPayout decides how much of round comes from the stable pool and how
// much from bonded capital, given the unpaid funds and the bonded share of them.
func splitPayout(round, unpaid, bonded StableBalance) (stable, fromBonded StableBalance) {
	switch {
	case unpaid >= bonded && round <= unpaid-bonded:
		return round, 0
	case unpaid <= bonded:
		return 0, round
	default:
		stable = unpaid - bonded
		return stable, round - stable
	}
}

// checkStrikes records a failed ballot. Reaching the strike limit ends the
// project and opens refunds; ended reports whether that happened.
func (e *Engine) checkStrikes(id ProjectID, project *Project, stats VoteStats) (ended bool, err error) {
	project.Strikes++
	e.emit(MilestoneRejected{ProjectID: id, Yes: stats.Yes, No: stats.No, Strikes: project.Strikes})
	if project.Strikes < e.cfg.StrikeLimit {
		return false, nil
	}
	return true, e.deleteProjectRefund(id, project)
}

// deleteProjectRefund ends a failed project. Holders may reclaim the share of
// their purchases that belongs to the milestones never paid out.
func (e *Engine) deleteProjectRefund(id ProjectID, project *Project) error {
	if project.Milestones == 0 {
		return fmt.Errorf("project %d: %w", id, ErrArithmeticUnderflow)
	}
	pct, err := mulDiv(uint64(project.RemainingMilestones), uint64(FullPercentage), uint64(project.Milestones))
	if err != nil {
		return err
	}
	percentage := BasisPoints(pct)
	bonded, err := NativeToStable(project.BondingBalance)
	if err != nil {
		return err
	}
	var refundable StableBalance
	if project.ProjectBalance > bonded {
		refundable = project.ProjectBalance - bonded
	}
	remaining, err := percentOf(refundable, percentage)
	if err != nil {
		return err
	}
	// Refunds never exceed the stable money this project still holds in
	// custody: sales minus what milestones already paid from the stable pool.
	held, err := e.stableHeld(id, project)
	if err != nil {
		return err
	}
	if remaining > held {
		e.log.WithFields(logrus.Fields{
			"project_id": id,
			"refund":     remaining,
			"held":       held,
		}).Warn("refund pool capped at stable funds held")
		remaining = held
	}

	ended := EndedProject{
		Success:             false,
		ProjectBalance:      remaining,
		BondingBalance:      e.projectBonding.GetOrZero(id),
		RemainingPercentage: percentage,
	}
	e.retire(id)
	e.saveEnded(id, ended)
	e.emit(ProjectDeleted{
		ProjectID:           id,
		Success:             false,
		RefundBalance:       ended.ProjectBalance,
		BondingBalance:      ended.BondingBalance,
		RemainingPercentage: percentage,
	})
	e.log.WithFields(logrus.Fields{
		"project_id": id,
		"percentage": percentage,
		"refund":     remaining,
	}).Warn("project failed after strikes")
	return nil
}

// stableHeld is the stable asset raised by sales that milestones have not yet
// paid out. Bonded contributions are counted in ProjectBalance but were never
// transferred in the stable asset.
func (e *Engine) stableHeld(id ProjectID, project *Project) (StableBalance, error) {
	bonded, err := NativeToStable(e.projectBonding.GetOrZero(id))
	if err != nil {
		return 0, err
	}
	if project.ProjectBalance <= bonded {
		return 0, nil
	}
	raised := project.ProjectBalance - bonded
	if raised <= project.StablePaid {
		return 0, nil
	}
	return raised - project.StablePaid, nil
}

// deleteProject ends a project whose milestones were all paid. Bonders still
// have to unwind their locks.
func (e *Engine) deleteProject(id ProjectID) error {
	ended := EndedProject{
		Success:        true,
		BondingBalance: e.projectBonding.GetOrZero(id),
	}
	e.holders.RemoveIf(func(k accountKey, _ bool) bool { return k.Project == id })
	e.votingPower.RemoveIf(func(k accountKey, _ StableBalance) bool { return k.Project == id })
	e.retire(id)
	e.saveEnded(id, ended)
	e.emit(ProjectDeleted{
		ProjectID:      id,
		Success:        true,
		BondingBalance: ended.BondingBalance,
	})
	e.log.WithField("project_id", id).Info("project completed")
	return nil
}

// retire removes the live records of a project
func (e *Engine) retire(id ProjectID) {
	project, ok := e.projects.Remove(id)
	if ok {
		for t := uint32(1); t <= project.NftTypes; t++ {
			e.listings.Remove(listingKey{id, t})
		}
	}
	e.ballots.Remove(id)
	e.clearVotes(id)
}

// ClaimRefundedToken pays a holder of a failed project their share of the
// unpaid milestones.
func (e *Engine) ClaimRefundedToken(holder chain.AccountID, id ProjectID) error {
	return e.atomic(func() error {
		return e.claimRefundedToken(holder, id)
	})
}

func (e *Engine) claimRefundedToken(holder chain.AccountID, id ProjectID) error {
	if err := e.ensureWhitelisted(holder); err != nil {
		return err
	}
	ended, ok := e.endedProjects.Get(id)
	if !ok {
		return ErrProjectNotEnded
	}
	key := accountKey{id, holder}
	if _, ok := e.holders.Remove(key); !ok {
		return ErrInsufficientPermission
	}
	power := e.votingPower.Take(key)

	amount, err := percentOf(power, ended.RemainingPercentage)
	if err != nil {
		return err
	}
	if amount > ended.ProjectBalance {
		e.log.WithFields(logrus.Fields{
			"project_id": id,
			"holder":     holder,
			"amount":     amount,
			"left":       ended.ProjectBalance,
		}).Warn("refund capped at remaining balance")
		amount = ended.ProjectBalance
	}
	if err := e.assets.Transfer(e.cfg.StableAsset, e.cfg.CustodyAccount, holder, uint64(amount)); err != nil {
		return fmt.Errorf("pay refund: %w", err)
	}
	ended.ProjectBalance -= amount

	if ended.ProjectBalance > 0 && !e.hasHolders(id) {
		e.log.WithFields(logrus.Fields{
			"project_id": id,
			"dust":       ended.ProjectBalance,
		}).Info("writing off refund rounding dust")
		ended.ProjectBalance = 0
	}

	e.emit(TokenRefunded{ProjectID: id, Holder: holder, Amount: amount})
	e.saveEnded(id, ended)
	return nil
}

func (e *Engine) hasHolders(id ProjectID) bool {
	found := false
	e.holders.Range(func(k accountKey, _ bool) bool {
		if k.Project == id {
			found = true
			return false
		}
		return true
	})
	return found
}
