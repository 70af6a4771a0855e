package eth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// HeadWatcher follows new block heads over a websocket subscription.
type HeadWatcher struct {
	url    string
	bus    *bus.Bus
	dialer *websocket.Dialer
	retry  time.Duration
	latest atomic.Uint64
}

func NewHeadWatcher(b *bus.Bus, url string) *HeadWatcher {
	return &HeadWatcher{
		url:    url,
		bus:    b,
		dialer: websocket.DefaultDialer,
		retry:  5 * time.Second,
	}
}

// Latest is the last head seen on a live subscription, 0 while disconnected.
func (w *HeadWatcher) Latest() uint64 {
	return w.latest.Load()
}

// Run keeps the subscription alive until ctx is done.
func (w *HeadWatcher) Run(ctx context.Context) {
	for {
		err := w.watch(ctx)
		w.latest.Store(0)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Str("url", w.url).Msg("HeadWatcher: subscription lost")

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retry):
		}
	}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Params struct {
		Subscription string `json:"subscription"`
		Result       struct {
			Number string `json:"number"`
		} `json:"result"`
	} `json:"params"`
}

func (w *HeadWatcher) watch(ctx context.Context) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	err = conn.WriteJSON(&wsRequest{JSONRPC: "2.0", ID: 1, Method: "eth_subscribe", Params: []interface{}{"newHeads"}})
	if err != nil {
		return err
	}

	for {
		var m wsMessage
		if err := conn.ReadJSON(&m); err != nil {
			return err
		}

		switch {
		case m.Error != nil:
			return fmt.Errorf("eth_subscribe: %s", m.Error.Message)
		case m.ID == 1:
			log.Debug().Str("url", w.url).Str("subscription", string(m.Result)).Msg("HeadWatcher: subscribed")
		case m.Method == "eth_subscription":
			n, err := hexutil.DecodeUint64(m.Params.Result.Number)
			if err != nil {
				log.Warn().Err(err).Msg("HeadWatcher: bad block number")
				continue
			}
			w.latest.Store(n)
			if w.bus != nil {
				w.bus.Send("eth", "head", &bus.B_EthHead{Number: n})
			}
		default:
			return errors.New("unexpected message")
		}
	}
}
