package pulsarutils

import (
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
)

// FakeMessageId is a comparable pulsar.MessageID for tests.
type FakeMessageId struct {
	pulsar.MessageID
	seq int
}

func NewMessageId(seq int) pulsar.MessageID {
	return FakeMessageId{seq: seq}
}

func (id FakeMessageId) String() string {
	return fmt.Sprintf("fake-%d", id.seq)
}

// FakeMessage implements the parts of pulsar.Message read by Receive and the ingestion pipeline.
type FakeMessage struct {
	pulsar.Message
	id          pulsar.MessageID
	payload     []byte
	publishTime time.Time
}

func NewPulsarMessage(seq int, publishTime time.Time, payload []byte) FakeMessage {
	return FakeMessage{id: NewMessageId(seq), payload: payload, publishTime: publishTime}
}

func EmptyPulsarMessage(seq int, publishTime time.Time) FakeMessage {
	return NewPulsarMessage(seq, publishTime, nil)
}

func (m FakeMessage) ID() pulsar.MessageID { return m.id }
func (m FakeMessage) Payload() []byte { return m.payload }
func (m FakeMessage) PublishTime() time.Time { return m.publishTime }
