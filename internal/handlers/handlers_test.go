package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"communityprojects/internal/engine"
	"communityprojects/internal/middleware"
	"communityprojects/internal/node"
	"communityprojects/pkg/chain"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/projects", h.ListProject)
	r.GET("/projects/:id", h.GetProject)
	r.GET("/projects/:id/ended", h.GetEndedProject)
	r.GET("/projects/:id/ballot", h.GetBallot)
	r.GET("/projects/:id/listings/:type", h.GetListing)
	r.GET("/projects/:id/holders/:account", h.GetHolder)
	r.POST("/projects/:id/buy", h.BuyNft)
	r.POST("/projects/:id/bond", h.BondToken)
	r.POST("/projects/:id/vote", h.VoteOnMilestone)
	r.POST("/projects/:id/claim-refund", h.ClaimRefundedToken)
	r.POST("/projects/:id/claim-bonding", h.ClaimBonding)
	r.GET("/chain/height", h.GetHeight)
	r.GET("/dead-letters", h.ListDeadLetters)
	return r
}

func startNode(t *testing.T) *node.Node {
	t.Helper()
	mem := chain.NewMemory(1)
	cfg := engine.DefaultConfig()
	logger, _ := logtest.NewNullLogger()
	eng := engine.New(cfg, engine.Deps{
		Journal:  mem.Journal,
		Identity: mem.Whitelist,
		Nfts:     mem.Nfts,
		Assets:   mem.Assets,
		Capital:  mem.Currency,
		Logger:   logger,
	})
	require.NoError(t, mem.Currency.Deposit(cfg.CustodyAccount, 1_000_000))
	for _, acc := range []chain.AccountID{"alice", "bob"} {
		mem.Whitelist.Add(acc)
		require.NoError(t, mem.Assets.Mint(cfg.StableAsset, acc, 5000))
		require.NoError(t, mem.Currency.Deposit(acc, 5000))
	}

	n := node.New(eng, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go n.Run(ctx)
	t.Cleanup(cancel)
	return n
}

func do(r http.Handler, method, path, account, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set(middleware.AccountHeader, account)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const listBody = `{
	"nft_types": [{"price": 100, "quantity": 10}],
	"metadata": ["tier one"],
	"duration": 2,
	"price": 1000,
	"collection_metadata": "solar roof"
}`

func TestProjectLifecycle(t *testing.T) {
	n := startNode(t)
	r := newRouter(NewHandler(n))

	w := do(r, http.MethodPost, "/projects", "", listBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/projects", "alice", listBody)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["project_id"])

	w = do(r, http.MethodGet, "/projects/0", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	project := decode(t, w)
	assert.Equal(t, "alice", project["owner"])
	assert.Equal(t, false, project["ongoing"])

	w = do(r, http.MethodGet, "/projects/0/listings/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), decode(t, w)["quantity"])

	w = do(r, http.MethodPost, "/projects/0/buy", "carol", `{"nft_type": 1, "quantity": 1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UserNotWhitelisted", decode(t, w)["code"])

	w = do(r, http.MethodPost, "/projects/0/buy", "bob", `{"nft_type": 1, "quantity": 10}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/projects/0/vote", "bob", `{"vote": "yes"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NoOngoingVotingPeriod", decode(t, w)["code"])

	w = do(r, http.MethodGet, "/projects/0/ballot", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	for i := 0; i < 10; i++ {
		_, err := n.ProduceBlock(context.Background())
		require.NoError(t, err)
	}

	w = do(r, http.MethodPost, "/projects/0/vote", "bob", `{"vote": "maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/projects/0/vote", "bob", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/projects/0/vote", "bob", `{"vote": "yes"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/projects/0/vote", "bob", `{"vote": "no"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AlreadyVoted", decode(t, w)["code"])

	w = do(r, http.MethodGet, "/projects/0/ballot", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	ballot := decode(t, w)
	assert.Equal(t, float64(1000), ballot["yes"])
	assert.Equal(t, float64(0), ballot["no"])

	w = do(r, http.MethodGet, "/projects/0/holders/bob", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	holder := decode(t, w)
	assert.Equal(t, true, holder["is_holder"])
	assert.Equal(t, float64(1000), holder["voting_power"])
	assert.Equal(t, true, holder["has_voted"])

	w = do(r, http.MethodPost, "/projects/0/claim-refund", "bob", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ProjectNotEnded", decode(t, w)["code"])

	w = do(r, http.MethodPost, "/projects/0/claim-bonding", "bob", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/projects/0/ended", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/chain/height", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), decode(t, w)["height"])

	w = do(r, http.MethodGet, "/dead-letters", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRequestErrors(t *testing.T) {
	r := newRouter(NewHandler(startNode(t)))

	tests := []struct {
		name    string
		method  string
		path    string
		account string
		body    string
		status  int
	}{
		{"unknown project", http.MethodGet, "/projects/7", "", "", http.StatusNotFound},
		{"bad project id", http.MethodGet, "/projects/abc", "", "", http.StatusBadRequest},
		{"bad tier", http.MethodGet, "/projects/0/listings/x", "", "", http.StatusBadRequest},
		{"missing listing", http.MethodGet, "/projects/0/listings/1", "", "", http.StatusNotFound},
		{"malformed body", http.MethodPost, "/projects/0/bond", "bob", `{"amount": "lots"}`, http.StatusBadRequest},
		{"missing tiers", http.MethodPost, "/projects", "alice", `{"duration": 2}`, http.StatusBadRequest},
		{"metadata mismatch", http.MethodPost, "/projects", "alice",
			`{"nft_types": [{"price": 100, "quantity": 10}], "metadata": [], "duration": 2, "price": 1000}`,
			http.StatusBadRequest},
		{"bond on unknown project", http.MethodPost, "/projects/7/bond", "bob", `{"amount": 10}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.account, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

type stalledExecutor struct{}

func (stalledExecutor) Submit(context.Context, func(*engine.Engine) error) error {
	return context.DeadlineExceeded
}

func (stalledExecutor) Query(context.Context, func(*engine.Engine)) error {
	return context.DeadlineExceeded
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{engine.ErrInvalidQuantity, http.StatusBadRequest},
		{engine.ErrInsufficientPermission, http.StatusForbidden},
		{engine.ErrAlreadyVoted, http.StatusConflict},
		{engine.ErrProjectNotFound, http.StatusNotFound},
		{fmt.Errorf("buy: %w", engine.ErrNotEnoughFunds), http.StatusUnprocessableEntity},
		{engine.ErrArithmeticOverflow, http.StatusInternalServerError},
		{context.Canceled, http.StatusServiceUnavailable},
		{node.ErrStopped, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusOf(tt.err), tt.err.Error())
	}

	r := newRouter(NewHandler(stalledExecutor{}))
	w := do(r, http.MethodGet, "/chain/height", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
