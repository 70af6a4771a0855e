package flow

import (
	"context"
	"errors"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/eth"
)

var ErrStillNotApproved = errors.New("allowance is still below the amount after approval")

// Progress is told about every state change of a Run.
type Progress func(m *Machine)

// Execute sends the transaction of one planned step and waits for its
// receipt, moving m along the way.
func Execute(ctx context.Context, c Chain, m *Machine, step Step, req Request, progress Progress) (*eth.Receipt, error) {
	runID, err := m.Begin(step)
	if err != nil {
		return nil, err
	}
	notify(progress, m)

	call, err := m.Action.CallFor(ctx, c, step, req)
	if err != nil {
		m.Fail(err)
		notify(progress, m)
		return nil, err
	}

	hash, err := c.Send(ctx, req.Owner, call, m.Action.Kind, runID)
	if err != nil {
		m.Fail(err)
		notify(progress, m)
		return nil, err
	}
	m.Sent(hash)
	notify(progress, m)

	r, err := c.WaitMined(ctx, hash, m.Action.Kind, runID)
	if err != nil {
		m.Fail(err)
		notify(progress, m)
		return nil, err
	}
	m.Mined(r)
	notify(progress, m)
	if m.State() == Failed {
		return r, m.Err()
	}
	return r, nil
}

// Run drives an action to completion: approve when needed, re-read the
// allowance, then the primary step. allowance may be nil for ungated actions.
func Run(ctx context.Context, c Chain, m *Machine, req Request, allowance func(ctx context.Context) (*big.Int, error), progress Progress) (*eth.Receipt, error) {
	approved := false
	for {
		var current *big.Int
		if m.Action.Gated() && allowance != nil {
			a, err := allowance(ctx)
			if err != nil {
				return nil, err
			}
			current = a
		}

		step, err := m.Plan(req.Amount, current)
		if err != nil {
			return nil, err
		}
		if step == StepApprove && approved {
			return nil, ErrStillNotApproved
		}

		r, err := Execute(ctx, c, m, step, req, progress)
		if err != nil {
			return r, err
		}
		if step != StepApprove {
			return r, nil
		}
		approved = true
	}
}

func notify(p Progress, m *Machine) {
	if p != nil {
		p(m)
	}
}
