package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type explosive struct {
	closed *int
}

func (e *explosive) Init() tea.Cmd { return nil }

func (e *explosive) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "x" {
		panic("boom")
	}
	return e, nil
}

func (e *explosive) View() string { return "fine" }

func (e *explosive) Close() { *e.closed++ }

func TestBoundaryRecoversAndReloads(t *testing.T) {
	builds, closed := 0, 0
	b := NewBoundary(func() tea.Model {
		builds++
		return &explosive{closed: &closed}
	})
	require.Equal(t, 1, builds)
	assert.Equal(t, "fine", b.View())

	model, cmd := b.Update(keyMsg("x"))
	assert.Same(t, b, model)
	assert.Nil(t, cmd)
	require.True(t, b.Crashed())

	view := b.View()
	assert.Contains(t, view, "Something went wrong")
	assert.Contains(t, view, "boom")
	assert.Contains(t, view, "r: reload")

	_, cmd = b.Update(keyMsg("a"))
	assert.Nil(t, cmd, "other keys are ignored while crashed")
	assert.True(t, b.Crashed())

	b.Update(keyMsg("r"))
	assert.False(t, b.Crashed())
	assert.Equal(t, 2, builds)
	assert.Equal(t, 1, closed)
	assert.Equal(t, "fine", b.View())
}

func TestBoundaryQuitWhileCrashed(t *testing.T) {
	b := NewBoundary(func() tea.Model { return &explosive{closed: new(int)} })
	b.Update(keyMsg("x"))
	require.True(t, b.Crashed())

	_, cmd := b.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
