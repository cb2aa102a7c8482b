package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/dudu/mirrorbooth/internal/overlay"
	"github.com/dudu/mirrorbooth/internal/pipeline"
	"github.com/dudu/mirrorbooth/internal/settings"
)

type filterRequest struct {
	FilterID string `json:"filterId"`
}

type statusResponse struct {
	pipeline.Status
	Idle     bool   `json:"idle"`
	FilterID string `json:"filterId"`
}

func (s *Server) listFilters(c *fiber.Ctx) error {
	cat := overlay.Category(c.Query("category"))
	if cat != "" && !knownCategory(cat) {
		return badRequest(fmt.Errorf("unknown category %q", cat))
	}
	filters := overlay.ByCategory(cat)
	if filters == nil {
		filters = []overlay.Definition{}
	}
	return c.JSON(filters)
}

func knownCategory(cat overlay.Category) bool {
	if cat == overlay.CategoryNone {
		return true
	}
	for _, l := range overlay.Categories() {
		if l.ID == cat {
			return true
		}
	}
	return false
}

func (s *Server) listCategories(c *fiber.Ctx) error {
	return c.JSON(overlay.Categories())
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	return c.JSON(s.store.Get())
}

func (s *Server) putSettings(c *fiber.Ctx) error {
	var next settings.Settings
	if err := c.BodyParser(&next); err != nil {
		return badRequest(fmt.Errorf("invalid settings body: %w", err))
	}
	got, err := s.store.Replace(next)
	if err != nil {
		return err
	}
	return c.JSON(got)
}

func (s *Server) putFilter(c *fiber.Ctx) error {
	var req filterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(fmt.Errorf("invalid filter body: %w", err))
	}
	if req.FilterID == "" {
		return badRequest(errors.New("filterId is required"))
	}
	got, err := s.store.SelectFilter(req.FilterID)
	if err != nil {
		return err
	}
	return c.JSON(got)
}

func (s *Server) snapshot() statusResponse {
	resp := statusResponse{
		Status:   s.status.Status(),
		FilterID: s.store.Get().FilterID,
	}
	if s.idle != nil {
		resp.Idle = s.idle.Idle()
	}
	return resp
}

func (s *Server) getStatus(c *fiber.Ctx) error {
	return c.JSON(s.snapshot())
}

// statusStream pushes a status snapshot every StatusInterval and whenever the
// settings change, until the client goes away.
func (s *Server) statusStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		id, _ := conn.Locals(RequestIDKey).(string)
		log := s.log.With("request_id", id)
		log.Debug("status stream opened")
		defer log.Debug("status stream closed")

		// reads only detect the close; clients send nothing
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := s.clock.Ticker(StatusInterval)
		defer ticker.Stop()
		changes := s.store.Subscribe(ctx)

		send := func() bool {
			payload, err := json.Marshal(s.snapshot())
			if err != nil {
				log.Errorw("failed to encode status", "error", err)
				return false
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debugw("status stream write failed", "error", err)
				return false
			}
			return true
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-changes:
			}
			if !send() {
				return
			}
		}
	})
}
