package ui

import (
	"github.com/dudu/mirrorbooth/internal/overlay"
	"github.com/dudu/mirrorbooth/internal/settings"
)

const (
	keyEsc        = 27
	intensityStep = 10
)

// Store is the part of the settings store the window reads and edits.
type Store interface {
	Render() settings.Render
	Kiosk() settings.Kiosk
	SelectFilter(id string) (settings.Settings, error)
	Update(fn func(*settings.Settings)) (settings.Settings, error)
}

// action is what a key press asks for
type action int

const (
	actionNone action = iota
	actionQuit
	actionNext
	actionPrev
	actionMore
	actionLess
	actionToggleUI
	actionToggleRotate
)

func keyAction(key int) action {
	if key < 0 {
		return actionNone
	}
	switch key & 0xff {
	case 'q', 'Q', keyEsc:
		return actionQuit
	case 'n', ' ':
		return actionNext
	case 'p':
		return actionPrev
	case '+', '=':
		return actionMore
	case '-', '_':
		return actionLess
	case 'h':
		return actionToggleUI
	case 'a':
		return actionToggleRotate
	}
	return actionNone
}

// apply performs a settings action and reports whether the user asked to quit.
func apply(store Store, a action) (quit bool, err error) {
	switch a {
	case actionQuit:
		return true, nil
	case actionNext, actionPrev:
		step := 1
		if a == actionPrev {
			step = -1
		}
		_, err = store.SelectFilter(overlay.Step(store.Render().FilterID, step))
	case actionMore, actionLess:
		delta := intensityStep
		if a == actionLess {
			delta = -intensityStep
		}
		_, err = store.Update(func(s *settings.Settings) {
			s.Intensity = min(max(s.Intensity+delta, 0), 100)
		})
	case actionToggleUI:
		_, err = store.Update(func(s *settings.Settings) { s.ShowUI = !s.ShowUI })
	case actionToggleRotate:
		_, err = store.Update(func(s *settings.Settings) { s.AutoRotate = !s.AutoRotate })
	}
	return false, err
}
