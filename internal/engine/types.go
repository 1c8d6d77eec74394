package engine

import (
	"fmt"

	"communityprojects/pkg/chain"
)

// ProjectID is the collection that holds a project's certificates
type ProjectID = chain.CollectionID

// BlockNumber is a chain height
type BlockNumber uint64

// NftType describes one certificate tier offered at listing time
type NftType struct {
	Price    StableBalance `json:"price"`
	Quantity uint32        `json:"quantity"`
}

// Project is the lifecycle record of a live campaign
type Project struct {
	Owner               chain.AccountID `json:"owner"`
	Price               StableBalance   `json:"price"`
	Duration            uint32          `json:"duration"`
	Milestones          uint32          `json:"milestones"`
	RemainingMilestones uint32          `json:"remaining_milestones"`
	ProjectBalance      StableBalance   `json:"project_balance"`
	BondingBalance      NativeBalance   `json:"bonding_balance"`
	// StablePaid is what milestones have paid the owner from the stable pool
	StablePaid          StableBalance   `json:"stable_paid"`
	Launching           BlockNumber     `json:"launching"`
	Strikes             uint8           `json:"strikes"`
	NftTypes            uint32          `json:"nft_types"`
	Ongoing             bool            `json:"ongoing"`
	Metadata            []byte          `json:"metadata,omitempty"`
}

// EndedProject is the settlement record left behind once a campaign terminates
type EndedProject struct {
	Success             bool          `json:"success"`
	ProjectBalance      StableBalance `json:"project_balance"`
	BondingBalance      NativeBalance `json:"bonding_balance"`
	RemainingPercentage BasisPoints   `json:"remaining_percentage"`
}

func (e EndedProject) settled() bool {
	return e.ProjectBalance == 0 && e.BondingBalance == 0
}

// Listing holds the unsold certificates of one tier
type Listing struct {
	Price StableBalance  `json:"price"`
	Items []chain.ItemID `json:"items"`
}

// Quantity is the number of certificates still for sale
func (l Listing) Quantity() int {
	return len(l.Items)
}

// VoteStats is the running tally of an open ballot
type VoteStats struct {
	Yes StableBalance `json:"yes"`
	No  StableBalance `json:"no"`
}

// Passed reports whether the ballot releases the milestone. A tie fails.
func (v VoteStats) Passed() bool {
	return v.Yes > v.No
}

// Vote is a holder's answer on a milestone ballot
type Vote uint8

const (
	VoteYes Vote = iota
	VoteNo
)

func (v Vote) String() string {
	if v == VoteYes {
		return "yes"
	}
	return "no"
}

func (v Vote) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Vote) UnmarshalText(b []byte) error {
	switch string(b) {
	case "yes", "Yes", "YES":
		*v = VoteYes
	case "no", "No", "NO":
		*v = VoteNo
	default:
		return fmt.Errorf("unknown vote %q", b)
	}
	return nil
}

// DeadLetter records a tick step that failed and was skipped
type DeadLetter struct {
	Height    BlockNumber `json:"height"`
	ProjectID ProjectID   `json:"project_id"`
	Step      string      `json:"step"`
	Error     string      `json:"error"`
}

type accountKey struct {
	Project ProjectID
	Account chain.AccountID
}

type listingKey struct {
	Project ProjectID
	Type    uint32
}

type itemKey struct {
	Project ProjectID
	Item    chain.ItemID
}
