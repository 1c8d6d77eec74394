package routes

import (
	"communityprojects/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupProjectRoutes sets up all routes related to community projects
func SetupProjectRoutes(r gin.IRouter, h *handlers.Handler) {
	projects := r.Group("/projects")
	{
		projects.POST("", h.ListProject)
		projects.GET("/:id", h.GetProject)
		projects.GET("/:id/ended", h.GetEndedProject)
		projects.GET("/:id/ballot", h.GetBallot)
		projects.GET("/:id/listings/:type", h.GetListing)
		projects.GET("/:id/holders/:account", h.GetHolder)
		projects.POST("/:id/buy", h.BuyNft)
		projects.POST("/:id/bond", h.BondToken)
		projects.POST("/:id/vote", h.VoteOnMilestone)
		projects.POST("/:id/claim-refund", h.ClaimRefundedToken)
		projects.POST("/:id/claim-bonding", h.ClaimBonding)
	}
}

// SetupChainRoutes exposes the block height and the tick dead letters
func SetupChainRoutes(r gin.IRouter, h *handlers.Handler) {
	r.GET("/chain/height", h.GetHeight)
	r.GET("/dead-letters", h.ListDeadLetters)
}
