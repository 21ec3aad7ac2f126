// Package viewer contains Datastar SSE handlers for the map viewer page.
package viewer

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-quake/internal/humastar"
	"github.com/joeblew999/plat-quake/internal/service"
	"github.com/joeblew999/plat-quake/internal/templates"
)

// Handler streams legend and layer-control fragments to the viewer.
type Handler struct {
	humastar.Handler
	view *service.MapView
}

// NewHandler creates a viewer handler.
func NewHandler(view *service.MapView, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		view:    view,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/viewer/legend", h.Legend, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/control", h.Control, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/events", h.Events, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/overlays/{name}/toggle", h.ToggleOverlay, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/base/{name}", h.SelectBase, huma.OperationTags("viewer"))
}

type NameInput struct {
	Name string `path:"name" doc:"Layer name"`
}

func (h *Handler) Legend(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.Render("legend", service.LegendHTML()), "#legend")
	}), nil
}

func (h *Handler) Control(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderControl(), "#layer-control")
	}), nil
}

// ToggleOverlay flips an overlay and tells the page to show or hide it.
// The data already on the page is reused.
func (h *Handler) ToggleOverlay(ctx context.Context, input *NameInput) (*huma.StreamResponse, error) {
	st, err := h.view.ToggleOverlay(input.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderControl(), "#layer-control")
		action := service.ActionHidden
		if st.Visible {
			action = service.ActionShown
		}
		dispatch(sse, service.Event{Resource: service.ResourceOverlay, Action: action, ID: st.Name})
	}), nil
}

func (h *Handler) SelectBase(ctx context.Context, input *NameInput) (*huma.StreamResponse, error) {
	p, err := h.view.SelectBase(input.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderControl(), "#layer-control")
		dispatch(sse, service.Event{Resource: service.ResourceBase, Action: service.ActionSelected, ID: p.Name})
	}), nil
}

// Events streams map view changes until the client goes away. It first
// replays the groups that were populated before the client subscribed, so a
// page rendered before the data arrived still draws every overlay.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		bus := h.view.Bus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		sse.Patch(h.renderControl(), "#layer-control")
		for _, ev := range replay(h.view.State().Overlays) {
			dispatch(sse, ev)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				sse.Patch(h.renderControl(), "#layer-control")
				dispatch(sse, ev)
			}
		}
	}), nil
}

// replay returns the events that bring a fresh page up to date with the
// populated overlays.
func replay(overlays []service.OverlayState) []service.Event {
	var events []service.Event
	for _, o := range overlays {
		if !o.Populated {
			continue
		}
		events = append(events, service.Event{Resource: service.ResourceOverlay, Action: service.ActionPopulated, ID: o.Name})
		if !o.Visible {
			events = append(events, service.Event{Resource: service.ResourceOverlay, Action: service.ActionHidden, ID: o.Name})
		}
	}
	return events
}

func (h *Handler) renderControl() string {
	return h.Render("layer-control", h.view.State())
}

func dispatch(sse humastar.SSE, ev service.Event) {
	sse.DispatchCustomEvent("layer-changed", map[string]any{
		"resource": ev.Resource,
		"action":   ev.Action,
		"id":       ev.ID,
	})
}

func notFound(err error) error {
	if errors.Is(err, service.ErrUnknownLayer) || errors.Is(err, service.ErrUnknownBaseLayer) {
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error500InternalServerError("internal error", err)
}
