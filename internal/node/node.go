package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"communityprojects/internal/engine"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrStopped is returned for commands submitted after the node stopped
var ErrStopped = errors.New("node stopped")

// Sink receives every committed event in commit order
type Sink interface {
	Publish(Envelope) error
}

type command struct {
	fn    func(*engine.Engine) error
	reply chan error
}

// Node owns the engine. All calls, queries and ticks go through one goroutine,
// so the engine sees a single ordered stream of commands the way a block
// executes extrinsics.
type Node struct {
	eng   *engine.Engine
	cmds  chan command
	done  chan struct{}
	sinks []Sink
	log   logrus.FieldLogger
}

func New(eng *engine.Engine, logger logrus.FieldLogger, sinks ...Sink) *Node {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Node{
		eng:   eng,
		cmds:  make(chan command),
		done:  make(chan struct{}),
		sinks: sinks,
		log:   logger.WithField("module", "node"),
	}
}

// Run executes commands until ctx is cancelled
func (n *Node) Run(ctx context.Context) {
	defer close(n.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-n.cmds:
			err := cmd.fn(n.eng)
			n.flush()
			cmd.reply <- err
		}
	}
}

// flush hands the events committed by the last command to the sinks
func (n *Node) flush() {
	for _, rec := range n.eng.DrainEvents() {
		env, err := NewEnvelope(rec)
		if err != nil {
			n.log.WithError(err).Error("failed to wrap event")
			continue
		}
		for _, sink := range n.sinks {
			if err := sink.Publish(env); err != nil {
				n.log.WithFields(logrus.Fields{
					"event":      env.Name,
					"project_id": env.ProjectID,
					"error":      err.Error(),
				}).Warn("sink rejected event")
			}
		}
	}
}

// Submit runs fn on the engine and waits for its result. ctx only bounds the
// wait for the node to accept the command: once accepted the command runs to
// completion and Submit reports its outcome, so a context error always means
// fn was not applied.
func (n *Node) Submit(ctx context.Context, fn func(*engine.Engine) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case n.cmds <- cmd:
	case <-n.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-cmd.reply
}

// Query runs a read-only fn on the engine
func (n *Node) Query(ctx context.Context, fn func(*engine.Engine)) error {
	return n.Submit(ctx, func(e *engine.Engine) error {
		fn(e)
		return nil
	})
}

// ProduceBlock ticks the engine to the next height
func (n *Node) ProduceBlock(ctx context.Context) (engine.BlockNumber, error) {
	var height engine.BlockNumber
	err := n.Submit(ctx, func(e *engine.Engine) error {
		height = e.Height() + 1
		e.OnInitialize(height)
		return nil
	})
	return height, err
}

// StartBlockProducer produces a block every blockTime. Stop the returned cron
// to halt block production.
func (n *Node) StartBlockProducer(blockTime time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", blockTime), func() {
		ctx, cancel := context.WithTimeout(context.Background(), blockTime)
		defer cancel()
		height, err := n.ProduceBlock(ctx)
		if err != nil {
			n.log.WithError(err).Warn("block not produced")
			return
		}
		n.log.WithField("height", height).Debug("block produced")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule block producer: %w", err)
	}
	c.Start()
	return c, nil
}
