package engine

import (
	"fmt"

	"communityprojects/pkg/chain"

	"github.com/sirupsen/logrus"
)

// ListProject opens a new campaign. One certificate is minted per unit of each
// tier and held by the custody account until sold. Milestones are one per
// month of duration, capped at Config.MaxMilestones.
func (e *Engine) ListProject(
	owner chain.AccountID,
	nftTypes []NftType,
	metadata [][]byte,
	duration uint32,
	price StableBalance,
	collectionMetadata []byte,
) (ProjectID, error) {
	var id ProjectID
	err := e.atomic(func() error {
		var err error
		id, err = e.listProject(owner, nftTypes, metadata, duration, price, collectionMetadata)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.log.WithFields(logrus.Fields{
		"project_id": id,
		"owner":      owner,
		"price":      price,
	}).Info("project listed")
	return id, nil
}

func (e *Engine) listProject(
	owner chain.AccountID,
	nftTypes []NftType,
	metadata [][]byte,
	duration uint32,
	price StableBalance,
	collectionMetadata []byte,
) (ProjectID, error) {
	if err := e.ensureWhitelisted(owner); err != nil {
		return 0, err
	}
	if len(metadata) != len(nftTypes) {
		return 0, ErrWrongAmountOfMetadata
	}
	if len(nftTypes) == 0 {
		return 0, ErrInvalidQuantity
	}
	if uint32(len(nftTypes)) > e.cfg.MaxNftTypes {
		return 0, ErrTooManyNftTypes
	}
	if duration == 0 {
		return 0, ErrDurationMustBeHigherThanZero
	}

	var reachable uint64
	for _, t := range nftTypes {
		if t.Quantity == 0 || t.Price == 0 {
			return 0, ErrInvalidQuantity
		}
		total, err := mulU64(uint64(t.Price), uint64(t.Quantity))
		if err != nil {
			return 0, err
		}
		if reachable, err = addU64(reachable, total); err != nil {
			return 0, err
		}
	}
	if price == 0 || uint64(price) > reachable {
		return 0, ErrPriceCannotBeReached
	}

	id, err := e.nfts.CreateCollection(e.cfg.CustodyAccount)
	if err != nil {
		return 0, fmt.Errorf("create collection: %w", err)
	}

	var next chain.ItemID
	for i, t := range nftTypes {
		items := make([]chain.ItemID, 0, t.Quantity)
		for q := uint32(0); q < t.Quantity; q++ {
			item := next
			next++
			if err := e.nfts.Mint(id, item, e.cfg.CustodyAccount); err != nil {
				return 0, fmt.Errorf("mint %d/%d: %w", id, item, err)
			}
			if err := e.nfts.SetMetadata(id, item, metadata[i]); err != nil {
				return 0, fmt.Errorf("set metadata %d/%d: %w", id, item, err)
			}
			e.nftPrices.Insert(itemKey{id, item}, t.Price)
			items = append(items, item)
		}
		e.listings.Insert(listingKey{id, uint32(i + 1)}, Listing{Price: t.Price, Items: items})
	}

	milestones := duration
	if milestones > e.cfg.MaxMilestones {
		milestones = e.cfg.MaxMilestones
	}
	e.projects.Insert(id, Project{
		Owner:               owner,
		Price:               price,
		Duration:            duration,
		Milestones:          milestones,
		RemainingMilestones: milestones,
		NftTypes:            uint32(len(nftTypes)),
		Metadata:            append([]byte(nil), collectionMetadata...),
	})
	e.emit(ProjectListed{
		ProjectID:  id,
		Seller:     owner,
		Price:      price,
		Duration:   duration,
		Milestones: milestones,
		NftTypes:   uint32(len(nftTypes)),
	})
	return id, nil
}

// BuyNft buys quantity certificates of a tier (1-based). Units left over once
// the funding target is reached are not bought, and the project launches.
func (e *Engine) BuyNft(buyer chain.AccountID, id ProjectID, nftType uint32, quantity uint32) error {
	return e.atomic(func() error {
		return e.buyNft(buyer, id, nftType, quantity)
	})
}

func (e *Engine) buyNft(buyer chain.AccountID, id ProjectID, nftType uint32, quantity uint32) error {
	if err := e.ensureWhitelisted(buyer); err != nil {
		return err
	}
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	project, ok := e.projects.Get(id)
	if !ok {
		return ErrProjectNotFound
	}
	if project.Ongoing {
		return ErrProjectOngoing
	}
	if nftType == 0 || nftType > project.NftTypes {
		return ErrNftTypeNotFound
	}
	key := listingKey{id, nftType}
	listing, ok := e.listings.Get(key)
	if !ok || listing.Quantity() < int(quantity) {
		return ErrNotEnoughNftsAvailable
	}

	holder := accountKey{id, buyer}
	items := append([]chain.ItemID(nil), listing.Items...)
	reached := false
	for q := uint32(0); q < quantity; q++ {
		item := items[0]
		price, ok := e.nftPrices.Get(itemKey{id, item})
		if !ok {
			return ErrNftNotFound
		}
		if err := e.assets.Transfer(e.cfg.StableAsset, buyer, e.cfg.CustodyAccount, uint64(price)); err != nil {
			return fmt.Errorf("%w: %v", ErrNotEnoughFunds, err)
		}
		if err := e.nfts.Transfer(id, item, buyer); err != nil {
			return fmt.Errorf("transfer %d/%d: %w", id, item, err)
		}
		items = items[1:]

		var err error
		if project.ProjectBalance, err = project.ProjectBalance.add(price); err != nil {
			return err
		}
		power, err := e.votingPower.GetOrZero(holder).add(price)
		if err != nil {
			return err
		}
		e.votingPower.Insert(holder, power)
		e.holders.Insert(holder, true)
		e.emit(NftBought{
			ProjectID:      id,
			Buyer:          buyer,
			NftType:        nftType,
			ItemID:         item,
			Price:          price,
			ProjectBalance: project.ProjectBalance,
		})

		if project.ProjectBalance >= project.Price {
			reached = true
			break
		}
	}

	if len(items) == 0 {
		e.listings.Remove(key)
	} else {
		e.listings.Insert(key, Listing{Price: listing.Price, Items: items})
	}
	if reached {
		if err := e.launch(id, &project); err != nil {
			return err
		}
	}
	e.projects.Insert(id, project)
	return nil
}

// launch starts the milestone cycle. Unsold certificates of every tier are
// burned and the first milestone period is scheduled.
func (e *Engine) launch(id ProjectID, project *Project) error {
	now := e.height.Get()
	project.Ongoing = true
	project.Launching = now

	burned := 0
	for t := uint32(1); t <= project.NftTypes; t++ {
		listing, ok := e.listings.Remove(listingKey{id, t})
		if !ok {
			continue
		}
		for _, item := range listing.Items {
			if err := e.nfts.Burn(id, item); err != nil {
				return fmt.Errorf("burn %d/%d: %w", id, item, err)
			}
			e.nftPrices.Remove(itemKey{id, item})
			burned++
		}
	}

	if _, err := e.scheduleMilestonePeriod(id, project.Duration); err != nil {
		return err
	}
	e.emit(ProjectLaunched{ProjectID: id, Launching: now, Burned: burned})
	e.log.WithFields(logrus.Fields{
		"project_id": id,
		"height":     now,
		"burned":     burned,
	}).Info("project launched")
	return nil
}
