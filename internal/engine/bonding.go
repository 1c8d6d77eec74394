package engine

import (
	"fmt"

	"communityprojects/pkg/chain"

	"github.com/sirupsen/logrus"
)

// BondToken locks up to amount of the bonder's capital behind a project that
// has not launched yet. The bonder always keeps MinimumRemainingAmount (plus
// whatever is already locked) liquid, so the effective amount may be smaller
// than requested. Bonded capital counts towards the funding target.
func (e *Engine) BondToken(bonder chain.AccountID, id ProjectID, amount NativeBalance) error {
	return e.atomic(func() error {
		return e.bondToken(bonder, id, amount)
	})
}

func (e *Engine) bondToken(bonder chain.AccountID, id ProjectID, amount NativeBalance) error {
	if err := e.ensureWhitelisted(bonder); err != nil {
		return err
	}
	project, ok := e.projects.Get(id)
	if !ok {
		return ErrInvalidIndex
	}
	if project.Ongoing {
		return ErrProjectOngoing
	}

	// Free balance includes locked capital; the one lock set below covers the
	// sum of all bonds.
	free := NativeBalance(e.capital.FreeBalance(bonder))
	if free <= e.cfg.MinimumRemainingAmount {
		return ErrNotEnoughFunds
	}
	effective := amount
	if available := free - e.cfg.MinimumRemainingAmount; effective > available {
		effective = available
	}
	if effective == 0 {
		return ErrNotEnoughFunds
	}

	total, err := e.totalBonded.Get().add(effective)
	if err != nil {
		return err
	}
	custody := NativeBalance(e.capital.FreeBalance(e.cfg.CustodyAccount))
	if custody < e.cfg.MinimumRemainingAmount || custody-e.cfg.MinimumRemainingAmount < total {
		return ErrNotEnoughBondingFundsAvailable
	}

	bonding, err := project.BondingBalance.add(effective)
	if err != nil {
		return err
	}
	bondingValue, err := NativeToStable(bonding)
	if err != nil {
		return err
	}
	if project.Price/10 < bondingValue {
		return ErrProjectCanOnlyHave10PercentBonding
	}
	contribution, err := NativeToStable(effective)
	if err != nil {
		return err
	}
	if project.ProjectBalance, err = project.ProjectBalance.add(contribution); err != nil {
		return err
	}
	project.BondingBalance = bonding

	key := accountKey{id, bonder}
	bond, err := e.bonds.GetOrZero(key).add(effective)
	if err != nil {
		return err
	}
	locked, err := e.accountLocked.GetOrZero(bonder).add(effective)
	if err != nil {
		return err
	}
	projectBonding, err := e.projectBonding.GetOrZero(id).add(effective)
	if err != nil {
		return err
	}
	e.bonds.Insert(key, bond)
	e.accountLocked.Insert(bonder, locked)
	e.projectBonding.Insert(id, projectBonding)
	e.totalBonded.Set(total)
	e.capital.SetLock(BondLockID, bonder, uint64(locked), chain.ReasonsAll)

	e.emit(TokenBonded{
		ProjectID:      id,
		Bonder:         bonder,
		Amount:         effective,
		BondingBalance: project.BondingBalance,
		ProjectBalance: project.ProjectBalance,
	})

	if project.ProjectBalance >= project.Price {
		if err := e.launch(id, &project); err != nil {
			return err
		}
	}
	e.projects.Insert(id, project)
	return nil
}

// ClaimBonding releases the bonder's lock on an ended project
func (e *Engine) ClaimBonding(bonder chain.AccountID, id ProjectID) error {
	return e.atomic(func() error {
		return e.claimBonding(bonder, id)
	})
}

func (e *Engine) claimBonding(bonder chain.AccountID, id ProjectID) error {
	if err := e.ensureWhitelisted(bonder); err != nil {
		return err
	}
	ended, ok := e.endedProjects.Get(id)
	if !ok {
		return ErrNoBondingYet
	}
	key := accountKey{id, bonder}
	amount, ok := e.bonds.Remove(key)
	if !ok {
		return ErrInvalidIndex
	}

	locked, err := e.accountLocked.GetOrZero(bonder).sub(amount)
	if err != nil {
		return err
	}
	if locked == 0 {
		e.accountLocked.Remove(bonder)
		e.capital.RemoveLock(BondLockID, bonder)
	} else {
		e.accountLocked.Insert(bonder, locked)
		e.capital.SetLock(BondLockID, bonder, uint64(locked), chain.ReasonsAll)
	}

	total, err := e.totalBonded.Get().sub(amount)
	if err != nil {
		return err
	}
	e.totalBonded.Set(total)
	projectBonding, err := e.projectBonding.GetOrZero(id).sub(amount)
	if err != nil {
		return err
	}
	if projectBonding == 0 {
		e.projectBonding.Remove(id)
	} else {
		e.projectBonding.Insert(id, projectBonding)
	}
	if ended.BondingBalance, err = ended.BondingBalance.sub(amount); err != nil {
		return fmt.Errorf("ended project %d bonding pool: %w", id, err)
	}

	e.emit(TokenUnbonded{ProjectID: id, Bonder: bonder, Amount: amount})
	e.saveEnded(id, ended)
	return nil
}

// saveEnded stores the settlement record, or drops it once both pools are empty
func (e *Engine) saveEnded(id ProjectID, ended EndedProject) {
	if ended.settled() {
		e.endedProjects.Remove(id)
		e.log.WithFields(logrus.Fields{
			"project_id": id,
			"success":    ended.Success,
		}).Info("project settled")
		return
	}
	e.endedProjects.Insert(id, ended)
}
