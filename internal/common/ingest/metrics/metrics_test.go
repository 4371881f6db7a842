package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New("test_", prometheus.NewRegistry())

	m.RecordDBError(DBOperationInsert)
	m.RecordDBError(DBOperationInsert)
	m.RecordDBError(DBOperationRedisPush)
	m.RecordPulsarMessageError(PulsarMessageErrorDeserialization)
	m.RecordPulsarConnectionError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dbErrors.WithLabelValues(string(DBOperationInsert))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbErrors.WithLabelValues(string(DBOperationRedisPush))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.dbErrors.WithLabelValues(string(DBOperationRead))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pulsarMessageError.WithLabelValues(string(PulsarMessageErrorDeserialization))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pulsarConnectionError))
}

func TestRecordBatchStored(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test_", reg)

	m.RecordBatchStored(3)
	m.RecordBatchStored(5)

	assert.Equal(t, 8.0, testutil.ToFloat64(m.storedMessages))
	expected := `
# HELP test_batch_messages Number of Pulsar messages per batch handed to the sink
# TYPE test_batch_messages histogram
test_batch_messages_bucket{le="1"} 0
test_batch_messages_bucket{le="4"} 1
test_batch_messages_bucket{le="16"} 2
test_batch_messages_bucket{le="64"} 2
test_batch_messages_bucket{le="256"} 2
test_batch_messages_bucket{le="1024"} 2
test_batch_messages_bucket{le="4096"} 2
test_batch_messages_bucket{le="+Inf"} 2
test_batch_messages_sum 8
test_batch_messages_count 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_batch_messages"))
}
