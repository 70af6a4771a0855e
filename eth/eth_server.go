package eth

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/AlexNa-Holdings/memestake/metrics"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ChainID     *big.Int
	ChainName   string
	RateLimit   int           // calls per second, 0 = unlimited
	ReceiptPoll time.Duration // receipt polling interval
	TxTimeout   time.Duration // max time for one request, receipts included
	Confirm     bool          // ask "ui" before signing
	Heads       *HeadWatcher  // optional source for block numbers
}

// Server answers "eth" requests on the bus with a single rpc backend.
type Server struct {
	bus     *bus.Bus
	backend Backend
	opts    Options
	limiter *limiter
	ch      chan *bus.Message
}

func NewServer(b *bus.Bus, backend Backend, opts Options) *Server {
	if opts.ReceiptPoll <= 0 {
		opts.ReceiptPoll = time.Second
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = 3 * time.Minute
	}
	if opts.ChainName == "" && opts.ChainID != nil {
		opts.ChainName = fmt.Sprintf("Chain %s", opts.ChainID)
	}
	return &Server{
		bus:     b,
		backend: backend,
		opts:    opts,
		limiter: newLimiter(opts.RateLimit),
	}
}

// Init subscribes to the "eth" topic and starts serving.
func (s *Server) Init() {
	s.ch = s.bus.Subscribe("eth")
	go s.Loop()
}

func (s *Server) Loop() {
	for msg := range s.ch {
		if msg.RespondTo != 0 {
			continue // ignore responses
		}
		go s.process(msg)
	}
}

func (s *Server) Stop() {
	if s.ch != nil {
		s.bus.Unsubscribe(s.ch)
	}
}

func (s *Server) process(msg *bus.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.TxTimeout)
	defer cancel()

	switch msg.Type {
	case "call":
		data, err := s.call(ctx, msg)
		msg.Respond(data, err)
	case "balance":
		balance, err := s.balance(ctx, msg)
		msg.Respond(balance, err)
	case "block-number":
		n, err := s.blockNumber(ctx)
		msg.Respond(n, err)
	case "send-tx":
		hash, err := s.sendTx(ctx, msg)
		msg.Respond(hash, err)
	case "wait-receipt":
		r, err := s.waitReceipt(ctx, msg)
		msg.Respond(r, err)
	case "sign-typed-data-v4":
		sig, err := s.signTypedDataV4(ctx, msg)
		msg.Respond(sig, err)
	}
}

// rpc runs one backend call under the rate limiter and reports the result.
func (s *Server) rpc(ctx context.Context, method string, f func(ctx context.Context) error) error {
	if s.backend == nil {
		return ErrNoBackend
	}
	if err := s.limiter.wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := f(ctx)
	metrics.ObserveRPC(method, err, time.Since(start))

	switch {
	case err != nil && isRateLimitError(err):
		log.Warn().Int("rate", s.limiter.currentRate()).Str("method", method).Msg("429 rate limit error")
		s.limiter.onRateLimitError()
		s.bus.Send("ui", "notify-error", fmt.Sprintf("%s: RPC rate limit (429)", s.opts.ChainName))
	case err != nil && isGatewayError(err):
		s.bus.Send("ui", "notify-error", fmt.Sprintf("%s: RPC gateway error", s.opts.ChainName))
	case err == nil:
		s.limiter.onSuccess()
	}
	return err
}
