package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRPC(t *testing.T) {
	ok := testutil.ToFloat64(rpcRequests.WithLabelValues("eth_call", "ok"))
	failed := testutil.ToFloat64(rpcRequests.WithLabelValues("eth_call", "error"))

	ObserveRPC("eth_call", nil, time.Millisecond)
	ObserveRPC("eth_call", errors.New("boom"), time.Millisecond)

	assert.Equal(t, ok+1, testutil.ToFloat64(rpcRequests.WithLabelValues("eth_call", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(rpcRequests.WithLabelValues("eth_call", "error")))
}

func TestTxEventsFromBus(t *testing.T) {
	b := bus.New()
	defer b.Close()

	before := testutil.ToFloat64(txEvents.WithLabelValues("stake", "mined"))

	ch := Init(b)
	defer b.Unsubscribe(ch)
	b.Send("tx", "mined", &bus.B_TxEvent{Action: "stake"})

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(txEvents.WithLabelValues("stake", "mined")) == before+1
	}, time.Second, 5*time.Millisecond)
}
