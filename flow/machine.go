package flow

import (
	"errors"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrBusy             = errors.New("a transaction is already in progress")
	ErrInvalidAmount    = errors.New("enter a valid amount")
	ErrAllowanceUnknown = errors.New("allowance not loaded yet")
	ErrReverted         = errors.New("transaction reverted")
)

type State int

const (
	Idle State = iota
	Approving
	Approved
	Submitting
	Confirming
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Approving:
		return "approving"
	case Approved:
		return "approved"
	case Submitting:
		return "submitting"
	case Confirming:
		return "confirming"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type Step int

const (
	StepNone Step = iota
	StepApprove
	StepPermit
	StepPrimary
)

// Machine tracks one action's transaction lifecycle. It does no I/O.
// Failed behaves like Idle for planning; an approval that already landed
// shows up in the next allowance read.
type Machine struct {
	Action *Action

	state   State
	step    Step
	runID   string
	hash    common.Hash
	receipt *eth.Receipt
	err     error
}

func NewMachine(a *Action) *Machine {
	return &Machine{Action: a}
}

func (m *Machine) State() State { return m.state }
func (m *Machine) Step() Step { return m.step }
func (m *Machine) RunID() string { return m.runID }
func (m *Machine) Hash() common.Hash { return m.hash }
func (m *Machine) Receipt() *eth.Receipt { return m.receipt }
func (m *Machine) Err() error { return m.err }

// Busy is true while a dispatched transaction has not resolved.
func (m *Machine) Busy() bool {
	switch m.state {
	case Approving, Submitting, Confirming:
		return true
	}
	return false
}

// Plan picks the next transaction for amount given the current allowance.
// allowance is ignored for ungated actions.
func (m *Machine) Plan(amount, allowance *big.Int) (Step, error) {
	if m.Busy() {
		return StepNone, ErrBusy
	}
	if amount == nil || amount.Sign() <= 0 {
		return StepNone, ErrInvalidAmount
	}
	if !m.Action.Gated() {
		return StepPrimary, nil
	}
	if allowance == nil {
		return StepNone, ErrAllowanceUnknown
	}
	if NeedsApproval(allowance, amount) {
		if m.Action.Permit != nil {
			return StepPermit, nil
		}
		return StepApprove, nil
	}
	return StepPrimary, nil
}

// Begin marks step as dispatched and returns the run id that tags its
// transaction.
func (m *Machine) Begin(step Step) (string, error) {
	if m.Busy() {
		return "", ErrBusy
	}
	if step == StepNone {
		return "", ErrInvalidAmount
	}

	m.step = step
	m.runID = uuid.NewString()
	m.hash = common.Hash{}
	m.receipt = nil
	m.err = nil
	if step == StepApprove {
		m.state = Approving
	} else {
		m.state = Submitting
	}

	log.Debug().Str("action", m.Action.Kind).Str("run", m.runID).Str("state", m.state.String()).Msg("flow: begin")
	return m.runID, nil
}

func (m *Machine) Sent(hash common.Hash) {
	m.hash = hash
	if m.state == Submitting {
		m.state = Confirming
	}
	log.Debug().Str("action", m.Action.Kind).Str("run", m.runID).Str("hash", hash.Hex()).Msg("flow: sent")
}

func (m *Machine) Mined(r *eth.Receipt) {
	m.receipt = r
	if !r.Succeeded() {
		m.Fail(ErrReverted)
		return
	}
	if m.step == StepApprove {
		m.state = Approved
	} else {
		m.state = Done
	}
	log.Info().Str("action", m.Action.Kind).Str("run", m.runID).Str("state", m.state.String()).Msg("flow: mined")
}

func (m *Machine) Fail(err error) {
	m.state = Failed
	m.err = err
	log.Error().Err(err).Str("action", m.Action.Kind).Str("run", m.runID).Msg("flow: failed")
}

// Reset forgets the last run. It is a no-op while busy.
func (m *Machine) Reset() {
	if m.Busy() {
		return
	}
	*m = Machine{Action: m.Action}
}

// Label is the button text for the next step.
func (m *Machine) Label(next Step) string {
	switch m.state {
	case Approving:
		return "Approving..."
	case Submitting, Confirming:
		return m.Action.BusyTitle
	}
	switch next {
	case StepApprove:
		return "Approve"
	case StepPermit:
		return "Sign & " + m.Action.Title
	}
	return m.Action.Title
}
