package indexer

import (
	"communityprojects/internal/node"
)

// MessagePublisher is the part of config.Publisher the queue sink needs
type MessagePublisher interface {
	Publish(queueName string, message interface{}) error
}

// QueueSink forwards envelopes to a RabbitMQ queue
type QueueSink struct {
	pub   MessagePublisher
	queue string
}

func NewQueueSink(pub MessagePublisher, queue string) *QueueSink {
	return &QueueSink{pub: pub, queue: queue}
}

// Publish implements node.Sink
func (q *QueueSink) Publish(env node.Envelope) error {
	return q.pub.Publish(q.queue, env)
}
