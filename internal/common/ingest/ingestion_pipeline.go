package ingest

import (
	gocontext "context"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	commonconfig "github.com/jobartifacts/artifactingester/internal/common/config"
	commonmetrics "github.com/jobartifacts/artifactingester/internal/common/ingest/metrics"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
	"github.com/jobartifacts/artifactingester/internal/common/pulsarutils"
	"github.com/jobartifacts/artifactingester/internal/common/util"
)

// HasPulsarMessageIds should be implemented by structs that can store a batch of pulsar message ids
// This is needed so we can pass message Ids down the pipeline and ack them at the end
type HasPulsarMessageIds interface {
	GetMessageIDs() []pulsar.MessageID
}

// MessageDecoder turns the payload of a single pulsar message into M.
type MessageDecoder[M any] func(payload []byte) (M, error)

// InstructionConverter should be implemented by structs that can convert a batch of decoded messages into an object
// suitable for passing to the sink
type InstructionConverter[M any, T HasPulsarMessageIds] interface {
	Convert(ctx *artifactcontext.Context, msg *MessagesWithIds[M]) T
}

// Sink should be implemented by the struct responsible for putting the data in its final resting place, e.g. a
// database.
type Sink[T HasPulsarMessageIds] interface {
	// Store should persist the instructions.  The store is responsible for retrying failed attempts and should only
	// return an error when it is satisfied that the operation cannot be retried.
	Store(ctx *artifactcontext.Context, msg T) error
}

// MessagesWithIds consists of a batch of decoded messages along with the Pulsar Message Ids of the whole batch.
// MessageIds contains every id in the batch, including those of messages that could not be decoded.
type MessagesWithIds[M any] struct {
	Messages   []M
	MessageIds []pulsar.MessageID
}

// IngestionPipeline is a pipeline that reads message from pulsar and inserts them into a sink. The pipeline will
// handle the following automatically:
//   - Receiving messages from pulsar
//   - Combining messages into batches for efficient processing
//   - Decoding message payloads
//   - Acking processed messages
//
// Callers must supply a decoder, an InstructionConverter for converting decoded messages into something that can be
// exhausted and a Sink capable of exhausting these objects
type IngestionPipeline[M any, T HasPulsarMessageIds] struct {
	pulsarConfig           commonconfig.PulsarConfig
	pulsarTopic            string
	pulsarSubscriptionName string
	pulsarBatchSize        int
	pulsarBatchDuration    time.Duration
	decoder                MessageDecoder[M]
	converter              InstructionConverter[M, T]
	sink                   Sink[T]
	metrics                *commonmetrics.Metrics
	consumer               pulsar.Consumer // for test purposes only
}

func NewIngestionPipeline[M any, T HasPulsarMessageIds](
	pulsarConfig commonconfig.PulsarConfig,
	pulsarTopic string,
	pulsarSubscriptionName string,
	pulsarBatchSize int,
	pulsarBatchDuration time.Duration,
	decoder MessageDecoder[M],
	converter InstructionConverter[M, T],
	sink Sink[T],
	metrics *commonmetrics.Metrics,
) *IngestionPipeline[M, T] {
	return &IngestionPipeline[M, T]{
		pulsarConfig:           pulsarConfig,
		pulsarTopic:            pulsarTopic,
		pulsarSubscriptionName: pulsarSubscriptionName,
		pulsarBatchSize:        pulsarBatchSize,
		pulsarBatchDuration:    pulsarBatchDuration,
		decoder:                decoder,
		converter:              converter,
		sink:                   sink,
		metrics:                metrics,
	}
}

// Run receives, batches, decodes, converts and stores messages until ctx is done. Each stage runs in its own
// goroutine and closes its output once its input is exhausted.
func (ingester *IngestionPipeline[M, T]) Run(ctx *artifactcontext.Context) error {
	if ingester.consumer == nil {
		consumer, closePulsar, err := ingester.subscribe()
		if err != nil {
			return err
		}
		ingester.consumer = consumer
		defer closePulsar()
	}
	received := pulsarutils.Receive(
		ctx,
		ingester.consumer,
		ingester.pulsarConfig.ReceiveTimeout,
		ingester.pulsarConfig.BackoffTime,
		ingester.metrics)

	// Downstream stages outlive ctx by two batch durations so that in-flight batches can be stored and acked.
	drainCtx, cancel := artifactcontext.WithCancel(artifactcontext.New(gocontext.Background(), ctx.Log))
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			grace := 2 * ingester.pulsarBatchDuration
			time.Sleep(grace)
			ctx.Log.Infof("Waited for %v: forcing cancel", grace)
			cancel()
		case <-drainCtx.Done():
		}
	}()

	batches := ingester.batch(drainCtx, received)
	decoded := ingester.decode(drainCtx, batches)
	converted := ingester.convert(drainCtx, decoded)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ingester.store(ctx, drainCtx, converted)
	}()

	ctx.Log.Info("Ingestion pipeline set up. Running until shutdown event received")
	<-done
	ctx.Log.Info("Shutdown event received - closing")
	return nil
}

func (ingester *IngestionPipeline[M, T]) batch(ctx *artifactcontext.Context, in chan pulsar.Message) <-chan []pulsar.Message {
	out := make(chan []pulsar.Message)
	batcher := NewBatcher[pulsar.Message](in, ingester.pulsarBatchSize, ingester.pulsarBatchDuration, func(b []pulsar.Message) { out <- b })
	go func() {
		defer close(out)
		batcher.Run(ctx)
	}()
	return out
}

func (ingester *IngestionPipeline[M, T]) decode(ctx *artifactcontext.Context, in <-chan []pulsar.Message) <-chan *MessagesWithIds[M] {
	out := make(chan *MessagesWithIds[M])
	go func() {
		defer close(out)
		for batch := range in {
			out <- decodeMessages(ctx, batch, ingester.decoder, ingester.metrics)
		}
	}()
	return out
}

func (ingester *IngestionPipeline[M, T]) convert(ctx *artifactcontext.Context, in <-chan *MessagesWithIds[M]) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for msgs := range in {
			out <- ingester.converter.Convert(ctx, msgs)
		}
	}()
	return out
}

// store hands each batch to the sink and acks it. The sink retries internally, so any error other than
// cancellation is logged and the batch is acked anyway.
func (ingester *IngestionPipeline[M, T]) store(ctx *artifactcontext.Context, drainCtx *artifactcontext.Context, in <-chan T) {
	for batch := range in {
		start := time.Now()
		err := ingester.sink.Store(drainCtx, batch)
		ids := batch.GetMessageIDs()
		if err != nil {
			ingester.metrics.RecordPulsarMessageError(commonmetrics.PulsarMessageErrorProcessing)
			logging.WithStacktrace(ctx.Log, err).Warn("Error storing messages")
		} else {
			ingester.metrics.RecordBatchStored(len(ids))
			ctx.Log.Infof("Stored %d pulsar messages in %dms", len(ids), time.Since(start).Milliseconds())
		}
		if errors.Is(err, gocontext.DeadlineExceeded) || errors.Is(err, gocontext.Canceled) {
			// Upstream stages stop once drainCtx is cancelled; until then they must not block on send.
			go discard(in)
			return
		}
		ingester.ack(ctx, drainCtx, ids)
	}
}

func discard[T any](in <-chan T) {
	for range in {
	}
}

func (ingester *IngestionPipeline[M, T]) ack(ctx *artifactcontext.Context, drainCtx *artifactcontext.Context, ids []pulsar.MessageID) {
	for _, id := range ids {
		util.RetryUntilSuccess(
			drainCtx,
			func() error { return ingester.consumer.AckID(id) },
			func(err error) {
				ctx.Log.WithError(err).Warnf("Pulsar ack failed; backing off for %s", ingester.pulsarConfig.BackoffTime)
				util.SleepWithContext(drainCtx, ingester.pulsarConfig.BackoffTime)
			},
		)
	}
}

func (ingester *IngestionPipeline[M, T]) subscribe() (pulsar.Consumer, func(), error) {
	pulsarClient, err := pulsarutils.NewPulsarClient(&ingester.pulsarConfig)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "Error creating pulsar client")
	}

	consumer, err := pulsarClient.Subscribe(pulsar.ConsumerOptions{
		Topic:                       ingester.pulsarTopic,
		SubscriptionName:            ingester.pulsarSubscriptionName,
		Type:                        pulsar.KeyShared,
		ReceiverQueueSize:           ingester.pulsarConfig.ReceiverQueueSize,
		SubscriptionInitialPosition: pulsar.SubscriptionPositionEarliest,
	})
	if err != nil {
		pulsarClient.Close()
		return nil, nil, errors.WithMessage(err, "Error creating pulsar consumer")
	}

	return consumer, func() {
		consumer.Close()
		pulsarClient.Close()
	}, nil
}

func decodeMessages[M any](ctx *artifactcontext.Context, batch []pulsar.Message, decoder MessageDecoder[M], metrics *commonmetrics.Metrics) *MessagesWithIds[M] {
	decoded := make([]M, 0, len(batch))
	messageIds := make([]pulsar.MessageID, len(batch))
	for i, msg := range batch {
		// Record the messageId- we need to record all message Ids, even if the message they contain is invalid
		// As they must be acked at the end
		messageIds[i] = msg.ID()

		m, err := decoder(msg.Payload())
		if err != nil {
			metrics.RecordPulsarMessageError(commonmetrics.PulsarMessageErrorDeserialization)
			ctx.Log.WithError(err).Warnf("Could not decode payload for msg %s", msg.ID())
			continue
		}
		decoded = append(decoded, m)
	}
	return &MessagesWithIds[M]{
		Messages: decoded, MessageIds: messageIds,
	}
}
