package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"treemind/internal/interact"
	"treemind/internal/render"
)

// wheelStep is the magnification of one wheel notch.
const wheelStep = 1.1

const pointerMouse interact.PointerID = 0

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Y >= m.canvasRows() {
		return
	}
	ctl := m.ed.Controller()
	p := render.CellCenter(msg.X, msg.Y, m.opts.Cell)

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		mag := wheelStep
		if msg.Button == tea.MouseButtonWheelDown {
			mag = 1 / wheelStep
		}
		ctl.PinchBegin()
		ctl.PinchUpdate(mag)
		ctl.PinchEnd()
		m.ed.Recenter()
		return
	case tea.MouseButtonRight:
		if msg.Action == tea.MouseActionPress {
			ctl.Cancel(pointerMouse)
		}
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			ctl.PointerDown(pointerMouse, p)
		}
	case tea.MouseActionMotion:
		ctl.PointerMove(pointerMouse, p)
	case tea.MouseActionRelease:
		ctl.PointerUp(pointerMouse, p)
	}
}
