package gatewayhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thunderfed/gateway/internal/coordinator"
	"github.com/thunderfed/gateway/internal/gqlerr"
)

// SSEHandler serves subscriptions over Server-Sent Events, the
// simpler of spec.md §6's two subscription transports: one GET
// request per subscription, one "event: next" per emitted value, a
// final "event: complete" when the subscription ends. Like ws.go's
// graphql-transport-ws handler, a subscription currently runs its
// bound operation once and completes immediately rather than
// streaming further updates (see ws.go's doc comment).
func SSEHandler(c *coordinator.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeTransportError(w, http.StatusNotImplemented, gqlerr.New(gqlerr.CodeInternal, "streaming not supported by this response writer"))
			return
		}

		q := r.URL.Query()
		body := requestBody{Query: q.Get("query"), OperationName: q.Get("operationName")}
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &body.Variables); err != nil {
				writeTransportError(w, http.StatusBadRequest, gqlerr.Wrap(gqlerr.CodeOperationValidation, err, "decoding variables parameter"))
				return
			}
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		result := c.Execute(r.Context(), body.toCoordinatorRequest())
		writeSSEEvent(w, "next", dataEnvelope(result))
		flusher.Flush()

		writeSSEEvent(w, "complete", nil)
		flusher.Flush()
	})
}

func writeSSEEvent(w http.ResponseWriter, event string, payload interface{}) {
	fmt.Fprintf(w, "event: %s\n", event)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err == nil {
			fmt.Fprintf(w, "data: %s\n", b)
		}
	}
	fmt.Fprint(w, "\n")
}
