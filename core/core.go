package core

import (
	"context"
	"fmt"
	"io"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/AlexNa-Holdings/memestake/metrics"
	"github.com/AlexNa-Holdings/memestake/sound"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/AlexNa-Holdings/memestake/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// App holds every service of one running instance. Nothing in the
// program reaches for globals beyond cmn.Config.
type App struct {
	Config    *cmn.SConfig
	Bus       *bus.Bus
	Session   *wallet.Session
	Email     *wallet.EmailLogin // nil without email_auth_url
	Chain     *eth.BusClient
	Cache     *cache.Store
	Contracts *staking.Contracts

	backend   eth.Backend
	server    *eth.Server
	heads     *eth.HeadWatcher
	sound     *sound.Server
	metricsCh chan *bus.Message
	cancel    context.CancelFunc
}

// New dials the configured RPC endpoint and starts all services.
func New(ctx context.Context, cfg *cmn.SConfig) (*App, error) {
	client, err := eth.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.RPCURL, err)
	}
	return NewWithBackend(ctx, cfg, client)
}

// NewWithBackend is New with an existing backend. When the backend is an
// io.Closer it is closed by Close.
func NewWithBackend(ctx context.Context, cfg *cmn.SConfig, backend eth.Backend) (*App, error) {
	contracts, err := staking.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	b := bus.New()
	if cfg.BusTimeout > 0 {
		b.Timeout = cfg.BusTimeout
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a := &App{
		Config:    cfg,
		Bus:       b,
		Cache:     store,
		Contracts: contracts,
		backend:   backend,
		cancel:    cancel,
	}

	if cfg.WSURL != "" {
		a.heads = eth.NewHeadWatcher(b, cfg.WSURL)
		go a.heads.Run(runCtx)
	}

	a.server = eth.NewServer(b, backend, eth.Options{
		ChainID:     cfg.Chain().BigID(),
		ChainName:   cfg.ChainName,
		RateLimit:   cfg.RPCRateLimit,
		ReceiptPoll: cfg.ReceiptPoll,
		TxTimeout:   cfg.TxTimeout,
		Confirm:     cfg.ConfirmTx,
		Heads:       a.heads,
	})
	a.server.Init()

	a.Session = wallet.NewSession(b, cmn.WalletsFolder())
	a.Session.Init()

	if cfg.EmailAuthURL != "" {
		a.Email = wallet.NewEmailLogin(wallet.NewHTTPProvider(cfg.EmailAuthURL), a.Session)
	}

	if cfg.SoundFile != "" {
		a.sound = sound.NewServer(b, cfg.SoundFile)
		a.sound.Init()
	}

	a.metricsCh = metrics.Init(b)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(runCtx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	a.Chain = eth.NewBusClient(b)

	if err := contracts.Resolve(ctx, a.Chain); err != nil {
		a.Close()
		return nil, err
	}

	log.Info().
		Int("chain", cfg.ChainID).
		Str("staking_vault", contracts.StakingVault.Hex()).
		Str("yield_vault", contracts.YieldVault.Hex()).
		Msg("App started")
	return a, nil
}

func (a *App) Close() {
	a.cancel()
	if a.sound != nil {
		a.sound.Stop()
	}
	a.server.Stop()
	a.Session.Stop()
	if a.metricsCh != nil {
		a.Bus.Unsubscribe(a.metricsCh)
	}
	if c, ok := a.backend.(io.Closer); ok {
		c.Close()
	} else if c, ok := a.backend.(interface{ Close() }); ok {
		c.Close()
	}
	a.Bus.Close()
	a.Cache.Clear()
}

func (a *App) Status() wallet.Status {
	return a.Session.Status()
}

func (a *App) Primary() (common.Address, bool) {
	return a.Session.Primary()
}

func (a *App) Login(name, pass string) error {
	return a.Session.Login(name, pass)
}

// Logout ends the session, resets the email code flow and forgets every
// read made for the account.
func (a *App) Logout() common.Address {
	prev := a.Session.Logout()
	if a.Email != nil {
		a.Email.Reset()
	}
	a.Cache.ClearOwner(prev)
	return prev
}

func (a *App) Wallets() []string {
	return wallet.List(a.Session.Dir())
}
