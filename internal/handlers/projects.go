package handlers

import (
	"net/http"
	"strconv"

	"communityprojects/internal/engine"
	"communityprojects/pkg/chain"

	"github.com/gin-gonic/gin"
)

// ListProjectRequest is the body of POST /projects
type ListProjectRequest struct {
	NftTypes           []engine.NftType `json:"nft_types" binding:"required"`
	Metadata           []string         `json:"metadata"`
	Duration           uint32           `json:"duration"`
	Price              uint64           `json:"price"`
	CollectionMetadata string           `json:"collection_metadata"`
}

type BuyNftRequest struct {
	NftType  uint32 `json:"nft_type"`
	Quantity uint32 `json:"quantity"`
}

type BondRequest struct {
	Amount uint64 `json:"amount"`
}

type VoteRequest struct {
	Vote *engine.Vote `json:"vote" binding:"required"`
}

// ListProject opens a new campaign owned by the caller
func (h *Handler) ListProject(c *gin.Context) {
	owner, ok := account(c)
	if !ok {
		return
	}
	var request ListProjectRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metadata := make([][]byte, len(request.Metadata))
	for i, m := range request.Metadata {
		metadata[i] = []byte(m)
	}

	var id engine.ProjectID
	err := h.exec.Submit(c.Request.Context(), func(e *engine.Engine) error {
		var err error
		id, err = e.ListProject(owner, request.NftTypes, metadata, request.Duration,
			engine.StableBalance(request.Price), []byte(request.CollectionMetadata))
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project_id": id})
}

// BuyNft buys certificates of one tier
func (h *Handler) BuyNft(c *gin.Context) {
	buyer, ok := account(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	var request BuyNftRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.submit(c, func(e *engine.Engine) error {
		return e.BuyNft(buyer, id, request.NftType, request.Quantity)
	})
}

// BondToken locks native capital behind a project
func (h *Handler) BondToken(c *gin.Context) {
	bonder, ok := account(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	var request BondRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.submit(c, func(e *engine.Engine) error {
		return e.BondToken(bonder, id, engine.NativeBalance(request.Amount))
	})
}

func (h *Handler) VoteOnMilestone(c *gin.Context) {
	voter, ok := account(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	var request VoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.submit(c, func(e *engine.Engine) error {
		return e.VoteOnMilestone(voter, id, *request.Vote)
	})
}

func (h *Handler) ClaimRefundedToken(c *gin.Context) {
	holder, ok := account(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	h.submit(c, func(e *engine.Engine) error {
		return e.ClaimRefundedToken(holder, id)
	})
}

func (h *Handler) ClaimBonding(c *gin.Context) {
	bonder, ok := account(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	h.submit(c, func(e *engine.Engine) error {
		return e.ClaimBonding(bonder, id)
	})
}

func (h *Handler) submit(c *gin.Context, fn func(*engine.Engine) error) {
	if err := h.exec.Submit(c.Request.Context(), fn); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetProject returns a live campaign
func (h *Handler) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var (
		project engine.Project
		found   bool
	)
	if err := h.exec.Query(c.Request.Context(), func(e *engine.Engine) {
		project, found = e.Project(id)
	}); err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, engine.ErrProjectNotFound)
		return
	}
	c.JSON(http.StatusOK, project)
}

// GetEndedProject returns the settlement record of a terminated campaign
func (h *Handler) GetEndedProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var (
		ended engine.EndedProject
		found bool
	)
	if err := h.exec.Query(c.Request.Context(), func(e *engine.Engine) {
		ended, found = e.EndedProject(id)
	}); err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, ended)
}

// GetBallot returns the open ballot of a campaign
func (h *Handler) GetBallot(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var (
		stats engine.VoteStats
		found bool
	)
	if err := h.exec.Query(c.Request.Context(), func(e *engine.Engine) {
		stats, found = e.Ballot(id)
	}); err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, engine.ErrNoOngoingVotingPeriod)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetListing returns the unsold certificates of a tier
func (h *Handler) GetListing(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	nftType, err := strconv.ParseUint(c.Param("type"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type format"})
		return
	}
	var (
		listing engine.Listing
		found   bool
	)
	if err := h.exec.Query(c.Request.Context(), func(e *engine.Engine) {
		listing, found = e.Listing(id, uint32(nftType))
	}); err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"price":    listing.Price,
		"quantity": listing.Quantity(),
		"items":    listing.Items,
	})
}

// HolderStatus is a caller's standing in one campaign
type HolderStatus struct {
	Account     chain.AccountID      `json:"account"`
	IsHolder    bool                 `json:"is_holder"`
	VotingPower engine.StableBalance `json:"voting_power"`
	HasVoted    bool                 `json:"has_voted"`
	Bond        engine.NativeBalance `json:"bond"`
	Locked      engine.NativeBalance `json:"locked"`
}

// GetHolder returns an account's holding, vote and bond in a campaign
func (h *Handler) GetHolder(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	acc := chain.AccountID(c.Param("account"))
	status := HolderStatus{Account: acc}
	if err := h.exec.Query(c.Request.Context(), func(e *engine.Engine) {
		status.IsHolder = e.IsHolder(id, acc)
		status.VotingPower = e.VotingPower(id, acc)
		status.HasVoted = e.HasVoted(id, acc)
		status.Bond = e.Bond(id, acc)
		status.Locked = e.AccountLocked(acc)
	}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
