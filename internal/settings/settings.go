// Package settings holds the live render and kiosk configuration shared by
// the frame loop, the control API and the kiosk director.
package settings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dudu/mirrorbooth/internal/overlay"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid settings")

// Render is read by the frame loop once per frame.
type Render struct {
	FilterID   string `json:"filterId" validate:"filter"`
	Intensity  int    `json:"intensity" validate:"min=0,max=100"`
	Brightness int    `json:"brightness" validate:"min=50,max=150"`
}

// Kiosk configures the unattended behaviours. Durations are whole seconds.
type Kiosk struct {
	AutoRotate       bool `json:"autoRotate"`
	RotationInterval int  `json:"rotationInterval" validate:"min=2,max=30"`
	IdleTimeout      int  `json:"idleTimeout" validate:"min=1,max=10"`
	ShowUI           bool `json:"showUI"`
}

// Rotation returns the auto-rotate interval.
func (k Kiosk) Rotation() time.Duration {
	return time.Duration(k.RotationInterval) * time.Second
}

// Idle returns how long without a face before the booth is idle.
func (k Kiosk) Idle() time.Duration {
	return time.Duration(k.IdleTimeout) * time.Second
}

// Settings is the full document exchanged with the control API and the config file.
type Settings struct {
	Render
	Kiosk
}

// Default returns the settings a fresh booth starts with.
func Default() Settings {
	return Settings{
		Render: Render{FilterID: "glasses", Intensity: 100, Brightness: 100},
		Kiosk:  Kiosk{AutoRotate: true, RotationInterval: 5, IdleTimeout: 3, ShowUI: true},
	}
}

// NewValidator returns a validator that knows the "filter" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("filter", func(fl validator.FieldLevel) bool {
		_, ok := overlay.Lookup(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks s against the field rules.
func Validate(v *validator.Validate, s Settings) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "filter":
		return fmt.Sprintf("%s: unknown filter %q", fe.Field(), fe.Value())
	case "min":
		return fmt.Sprintf("%s: must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
	}
}

// Store is the single owner of the live settings. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	current  Settings
	validate *validator.Validate
	subs     []chan Settings
}

// NewStore validates initial and returns a store holding it.
func NewStore(initial Settings) (*Store, error) {
	v := NewValidator()
	if err := Validate(v, initial); err != nil {
		return nil, err
	}
	return &Store{current: initial, validate: v}, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Render returns the per-frame render snapshot.
func (s *Store) Render() Render {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Render
}

// Kiosk returns the kiosk section.
func (s *Store) Kiosk() Kiosk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Kiosk
}

// Update applies fn to a copy of the settings and commits the result only if
// it validates. Subscribers are notified of committed changes.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current
	fn(&next)
	if err := Validate(s.validate, next); err != nil {
		return s.current, err
	}
	if next != s.current {
		s.current = next
		notify(s.subs, next)
	}
	return next, nil
}

// Replace swaps the whole document, validated.
func (s *Store) Replace(next Settings) (Settings, error) {
	return s.Update(func(cur *Settings) { *cur = next })
}

// SelectFilter switches the active filter.
func (s *Store) SelectFilter(id string) (Settings, error) {
	return s.Update(func(cur *Settings) { cur.FilterID = id })
}

// Subscribe returns a channel receiving the settings after every committed
// change until ctx is done. Slow subscribers miss intermediate values but
// always see the latest.
func (s *Store) Subscribe(ctx context.Context) <-chan Settings {
	ch := make(chan Settings, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(c chan Settings) bool { return c == ch })
	}()
	return ch
}

func notify(subs []chan Settings, v Settings) {
	for _, ch := range subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// replace the stale value
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
