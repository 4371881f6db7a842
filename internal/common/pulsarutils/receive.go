package pulsarutils

import (
	gocontext "context"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	commonmetrics "github.com/jobartifacts/artifactingester/internal/common/ingest/metrics"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
	"github.com/jobartifacts/artifactingester/internal/common/util"
)

// Receive returns a channel onto which every message received by consumer is published.
// The channel is closed once ctx is done.
func Receive(
	ctx *artifactcontext.Context,
	consumer pulsar.Consumer,
	receiveTimeout time.Duration,
	backoffTime time.Duration,
	m *commonmetrics.Metrics,
) chan pulsar.Message {
	out := make(chan pulsar.Message)
	go func() {
		// Periodically log the number of processed messages.
		logInterval := 60 * time.Second
		lastLogged := time.Now()
		numReceived := 0
		var lastMessageId pulsar.MessageID
		lastPublishTime := time.Now()

		for {
			if time.Since(lastLogged) > logInterval {
				ctx.Log.WithFields(
					logrus.Fields{
						"received":      numReceived,
						"interval":      logInterval,
						"lastMessageId": lastMessageId,
						"timeLag":       time.Since(lastPublishTime),
					},
				).Info("message statistics")
				numReceived = 0
				lastLogged = time.Now()
			}

			select {
			case <-ctx.Done():
				ctx.Log.Infof("Shutting down pulsar receiver")
				close(out)
				return
			default:
				ctxWithTimeout, cancel := artifactcontext.WithTimeout(ctx, receiveTimeout)
				msg, err := consumer.Receive(ctxWithTimeout)
				cancel()
				if errors.Is(err, gocontext.DeadlineExceeded) || errors.Is(err, gocontext.Canceled) {
					ctx.Log.Debugf("No message received")
					continue
				}
				// Any other error means this function can't proceed, so try again in the hope it is transient.
				if err != nil {
					m.RecordPulsarConnectionError()
					logging.
						WithStacktrace(ctx.Log, err).
						WithField("lastMessageId", lastMessageId).
						Warnf("Pulsar receive failed; backing off for %s", backoffTime)
					util.SleepWithContext(ctx, backoffTime)
					continue
				}

				numReceived++
				lastPublishTime = msg.PublishTime()
				lastMessageId = msg.ID()
				select {
				case out <- msg:
				case <-ctx.Done():
				}
			}
		}
	}()
	return out
}
