package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/rs/zerolog/log"
)

var ErrLocked = errors.New("wallet is locked")

const signTimeout = 2 * time.Minute

// Account is anything that can sign for one address.
type Account interface {
	Address() common.Address
	SignTx(ctx context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
	SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error)
}

type localAccount struct {
	key *ecdsa.PrivateKey
}

func (a *localAccount) Address() common.Address {
	return crypto.PubkeyToAddress(a.key.PublicKey)
}

func (a *localAccount) SignTx(_ context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	return SignTx(a.key, chainID, tx)
}

func (a *localAccount) SignTypedData(_ context.Context, td apitypes.TypedData) ([]byte, error) {
	return SignTypedData(a.key, td)
}

type Status struct {
	Ready         bool
	Authenticated bool
}

// Session holds the accounts of whoever is logged in and signs for them.
type Session struct {
	bus *bus.Bus
	dir string

	mu       sync.RWMutex
	ready    bool
	wallet   *Wallet
	accounts []Account
	method   string
	ch       chan *bus.Message
}

func NewSession(b *bus.Bus, dir string) *Session {
	return &Session{bus: b, dir: dir}
}

// Init starts serving "signer" requests and marks the session ready.
func (s *Session) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus != nil && s.ch == nil {
		s.ch = s.bus.Subscribe("signer")
		go s.Loop(s.ch)
	}
	s.ready = true
}

func (s *Session) Stop() {
	s.mu.Lock()
	ch := s.ch
	s.ch = nil
	s.mu.Unlock()
	if ch != nil {
		s.bus.Unsubscribe(ch)
	}
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{Ready: s.ready, Authenticated: len(s.accounts) > 0}
}

func (s *Session) Dir() string { return s.dir }

func (s *Session) Wallet() *Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

func (s *Session) Accounts() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Address, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = a.Address()
	}
	return out
}

// Primary is the account actions run as.
func (s *Session) Primary() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.accounts) == 0 {
		return common.Address{}, false
	}
	return s.accounts[0].Address(), true
}

func (s *Session) account(a common.Address) Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.Address() == a {
			return acc
		}
	}
	return nil
}

// Login unlocks a wallet file. The current address becomes the primary account.
func (s *Session) Login(name, pass string) error {
	w, err := Open(s.dir, name, pass)
	if err != nil {
		return err
	}

	current := w.CurrentAddress()
	if current == nil {
		return errors.New("wallet has no addresses")
	}

	ordered := []*Address{current}
	for _, a := range w.Addresses {
		if a != current {
			ordered = append(ordered, a)
		}
	}

	accs := make([]Account, 0, len(ordered))
	for _, a := range ordered {
		signer := w.GetSigner(a.Signer)
		if signer == nil {
			return fmt.Errorf("signer not found: %s", a.Signer)
		}
		m, err := NewFromSN(signer.SN)
		if err != nil {
			return err
		}
		key, err := m.Key(a.Path)
		if err != nil {
			return err
		}
		accs = append(accs, &localAccount{key: key})
	}

	s.mu.Lock()
	s.wallet = w
	s.accounts = accs
	s.method = "wallet"
	s.mu.Unlock()

	log.Info().Str("wallet", name).Str("address", current.Address.Hex()).Msg("Logged in")
	s.publish("login", current.Address, "wallet")
	return nil
}

// LoginAccount makes a single externally provided account the session.
func (s *Session) LoginAccount(a Account, method string) {
	s.mu.Lock()
	s.wallet = nil
	s.accounts = []Account{a}
	s.method = method
	s.mu.Unlock()

	log.Info().Str("method", method).Str("address", a.Address().Hex()).Msg("Logged in")
	s.publish("login", a.Address(), method)
}

// Logout forgets all accounts and returns the primary one it had.
func (s *Session) Logout() common.Address {
	s.mu.Lock()
	var prev common.Address
	if len(s.accounts) > 0 {
		prev = s.accounts[0].Address()
	}
	method := s.method
	s.wallet = nil
	s.accounts = nil
	s.method = ""
	s.mu.Unlock()

	if prev != (common.Address{}) {
		log.Info().Str("address", prev.Hex()).Msg("Logged out")
		s.publish("logout", prev, method)
	}
	return prev
}

func (s *Session) publish(t string, a common.Address, method string) {
	if s.bus != nil {
		s.bus.Send("wallet", t, &bus.B_WalletEvent{Address: a, Method: method})
	}
}

func (s *Session) Loop(ch chan *bus.Message) {
	for msg := range ch {
		if msg.RespondTo != 0 {
			continue // ignore responses
		}
		go s.process(msg)
	}
}

func (s *Session) process(msg *bus.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), signTimeout)
	defer cancel()

	switch msg.Type {
	case "sign-tx":
		req, ok := msg.Data.(*bus.B_SignerSignTx)
		if !ok {
			msg.Respond(nil, bus.ErrInvalidMessageData)
			return
		}
		a := s.account(req.From)
		if a == nil {
			msg.Respond(nil, ErrLocked)
			return
		}
		tx, err := a.SignTx(ctx, req.ChainID, req.Tx)
		msg.Respond(tx, err)
	case "sign-typed-data-v4":
		req, ok := msg.Data.(*bus.B_SignerSignTypedData_v4)
		if !ok {
			msg.Respond(nil, bus.ErrInvalidMessageData)
			return
		}
		a := s.account(req.Address)
		if a == nil {
			msg.Respond(nil, ErrLocked)
			return
		}
		sig, err := a.SignTypedData(ctx, req.TypedData)
		msg.Respond(sig, err)
	}
}
