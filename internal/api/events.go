package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/vidshrink/internal/events"
)

// registerSSERoutes registers the job event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time probe, encode and preview events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"probe-completed": events.ProbeCompletedEvent{},
		"encode-started":  events.EncodeStartedEvent{},
		"encode-progress": events.EncodeProgressEvent{},
		"encode-finished": events.EncodeFinishedEvent{},
		"preview-frame":   events.PreviewFrameEvent{},
		"preview-stopped": events.PreviewStoppedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Preview frames arrive in bursts.
		eventCh := make(chan any, 32)

		defer events.SubscribeJobEvents(s.eventBus, eventCh)()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
