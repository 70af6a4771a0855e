package ui

import (
	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/ethereum/go-ethereum/common"
)

// txSentMsg is the result of dispatching one step of a panel's action.
type txSentMsg struct {
	panel string
	runID string
	hash  common.Hash
	err   error
}

type txMinedMsg struct {
	panel   string
	runID   string
	receipt *eth.Receipt
	err     error
}

// refreshedMsg arrives when a batch of cache reads has landed.
type refreshedMsg struct {
	err error
}

type pollMsg struct{}

type loginMsg struct {
	err error
}

type emailMsg struct {
	err error
}

// busMsg carries a message of the ui or wallet topic into the update loop.
type busMsg struct {
	msg *bus.Message
}

type StatusMsg struct {
	Text  string
	IsErr bool
}
