package indexer

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"communityprojects/internal/engine"
	"communityprojects/internal/models"
	"communityprojects/internal/node"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProjectUpdates(t *testing.T) {
	t.Run("listing creates the row", func(t *testing.T) {
		create, updates := projectUpdates(3, engine.ProjectListed{
			ProjectID: 7, Seller: "alice", Price: 1000, Duration: 24, Milestones: 12, NftTypes: 2,
		})
		assert.Nil(t, updates)
		require.NotNil(t, create)
		assert.Equal(t, models.ProjectRecord{
			ProjectID:           7,
			Owner:               "alice",
			Status:              models.ProjectStatusListed,
			Price:               1000,
			Duration:            24,
			Milestones:          12,
			RemainingMilestones: 12,
			NftTypes:            2,
			LastHeight:          3,
		}, *create)
	})

	t.Run("launch", func(t *testing.T) {
		create, updates := projectUpdates(5, engine.ProjectLaunched{ProjectID: 7, Launching: 5, Burned: 3})
		assert.Nil(t, create)
		launched := uint64(5)
		assert.Equal(t, map[string]interface{}{
			"status":      models.ProjectStatusOngoing,
			"launched_at": &launched,
			"last_height": uint64(5),
		}, updates)
	})

	t.Run("payout", func(t *testing.T) {
		_, updates := projectUpdates(20, engine.FundsDestributed{
			ProjectID: 7, Owner: "alice", Stable: 60, Native: 40, RemainingMilestones: 9,
		})
		assert.Equal(t, uint32(9), updates["remaining_milestones"])
		assert.Equal(t, uint8(0), updates["strikes"])
		assert.Equal(t, gorm.Expr("paid_out + ?", uint64(100)), updates["paid_out"])
		assert.Equal(t, gorm.Expr("bonding_balance - ?", uint64(40)), updates["bonding_balance"])
	})

	t.Run("failure", func(t *testing.T) {
		_, updates := projectUpdates(80, engine.ProjectDeleted{
			ProjectID: 7, Success: false, RefundBalance: 500, RemainingPercentage: 5000,
		})
		assert.Equal(t, models.ProjectStatusFailed, updates["status"])
		assert.Equal(t, uint32(5000), updates["remaining_percentage"])
		ended := uint64(80)
		assert.Equal(t, &ended, updates["ended_at"])
	})

	t.Run("refund", func(t *testing.T) {
		_, updates := projectUpdates(90, engine.TokenRefunded{ProjectID: 7, Holder: "bob", Amount: 150})
		assert.Equal(t, gorm.Expr("refunded + ?", uint64(150)), updates["refunded"])
	})

	t.Run("ballot events only hit the log", func(t *testing.T) {
		for _, ev := range []engine.Event{
			engine.VotingPeriodStarted{ProjectID: 7, EndsAt: 30},
			engine.VotedOnMilestone{ProjectID: 7, Voter: "bob", Vote: engine.VoteYes, Power: 300},
			engine.MilestonePeriodStarted{ProjectID: 7, EndsAt: 40},
			engine.TokenUnbonded{ProjectID: 7, Bonder: "carol", Amount: 10},
		} {
			create, updates := projectUpdates(1, ev)
			assert.Nil(t, create, ev.EventName())
			assert.Nil(t, updates, ev.EventName())
		}
	})
}

func TestProjectorDropsPoison(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	p := NewProjector(nil, logger)

	assert.NoError(t, p.Handle([]byte("not json")))
	assert.NoError(t, p.Handle([]byte(`{"id":"x","name":"Unknown","payload":{}}`)))
	assert.Len(t, hook.AllEntries(), 2)
}

type fakePublisher struct {
	queue string
	msg   interface{}
	err   error
}

func (f *fakePublisher) Publish(queue string, msg interface{}) error {
	f.queue, f.msg = queue, msg
	return f.err
}

func TestQueueSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewQueueSink(pub, "community_project_events")
	env := node.Envelope{ID: "1", Name: "NftBought", ProjectID: 2}

	require.NoError(t, sink.Publish(env))
	assert.Equal(t, "community_project_events", pub.queue)
	assert.Equal(t, env, pub.msg)

	pub.err = errors.New("channel closed")
	assert.Error(t, sink.Publish(env))
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) node.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env node.Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger, nil)
	r := gin.New()
	r.GET("/events/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	all := dial(t, srv, "")
	onlyTwo := dial(t, srv, "?project=2")
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	payload, _ := json.Marshal(engine.NftBought{ProjectID: 1, Buyer: "bob", NftType: 1, Price: 100})
	require.NoError(t, hub.Publish(node.Envelope{ID: "a", Name: "NftBought", ProjectID: 1, Payload: payload}))
	require.NoError(t, hub.Publish(node.Envelope{ID: "b", Name: "NftBought", ProjectID: 2, Payload: payload}))

	assert.Equal(t, "a", readEnvelope(t, all).ID)
	assert.Equal(t, "b", readEnvelope(t, all).ID)
	assert.Equal(t, "b", readEnvelope(t, onlyTwo).ID)

	require.NoError(t, all.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/events/ws?project=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
