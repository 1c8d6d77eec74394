package handlers

import (
	"net/http"

	"communityprojects/internal/engine"

	"github.com/gin-gonic/gin"
)

// GetHeight returns the current block and the bonded total
func (h *Handler) GetHeight(c *gin.Context) {
	var (
		height engine.BlockNumber
		bonded engine.NativeBalance
	)
	if err := h.exec.Query(c.Request.Context(), func(e *engine.Engine) {
		height = e.Height()
		bonded = e.TotalBonded()
	}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"height": height, "total_bonded": bonded})
}

// ListDeadLetters returns the tick steps that failed
func (h *Handler) ListDeadLetters(c *gin.Context) {
	var letters []engine.DeadLetter
	if err := h.exec.Query(c.Request.Context(), func(e *engine.Engine) {
		letters = e.DeadLetters()
	}); err != nil {
		respondError(c, err)
		return
	}
	if letters == nil {
		letters = []engine.DeadLetter{}
	}
	c.JSON(http.StatusOK, letters)
}
