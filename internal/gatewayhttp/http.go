package gatewayhttp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/thunderfed/gateway/internal/config"
	"github.com/thunderfed/gateway/internal/coordinator"
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/queryparse"
	"github.com/thunderfed/gateway/internal/ratelimit"
	"github.com/thunderfed/gateway/logger"
)

// csrfHeaderName is the header a CSRF-protected request must carry
// (spec.md §6: "reject requests missing a configured header"). Named
// after Apollo Server's own "apollo-require-preflight" convention: any
// request carrying this header can't have been issued by a bare HTML
// form or <img> tag, since those can't set custom headers, so its
// mere presence is proof the request went through a real fetch/XHR
// call subject to the browser's CORS preflight.
const csrfHeaderName = "X-Gateway-Require-Preflight"

// Handler serves the GraphQL-over-HTTP surface of spec.md §6 over a
// single Coordinator. Construct with NewHandler.
type Handler struct {
	Coordinator *coordinator.Coordinator

	Graph config.GraphConfig
	CSRF  config.CSRFConfig

	// Limiter, if set, gates every request by RemoteAddr before it
	// reaches the coordinator (spec.md §5's gateway-level rate limit;
	// per-subgraph limits are internal/transport's concern instead).
	Limiter ratelimit.Limiter

	Logger logger.Logger
}

// NewHandler builds a Handler from a Config's graph/csrf sections and
// the pipeline it fronts.
func NewHandler(c *coordinator.Coordinator, cfg *config.Config, limiter ratelimit.Limiter, log logger.Logger) *Handler {
	return &Handler{
		Coordinator: c,
		Graph:       cfg.Graph,
		CSRF:        cfg.CSRF,
		Limiter:     limiter,
		Logger:      log,
	}
}

func (h *Handler) log() logger.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logger.New()
}

// ServeHTTP implements the POST/GET/batch surface. Subscriptions are
// handled by the separate SSE/websocket handlers in sse.go/ws.go,
// since they need hijacked/upgraded connections this method never
// sees.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.CSRF.Enabled && r.Header.Get(csrfHeaderName) == "" {
		writeTransportError(w, http.StatusForbidden, gqlerr.New(gqlerr.CodeUnauthorized,
			"missing required CSRF protection header %q", csrfHeaderName))
		return
	}

	if h.Limiter != nil {
		allowed, err := h.Limiter.Allow(r.Context(), clientKey(r))
		if err != nil {
			h.log().Error("rate limiter error", "error", err)
		} else if !allowed {
			writeTransportError(w, http.StatusTooManyRequests, gqlerr.New(gqlerr.CodeRateLimited, "rate limit exceeded"))
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		h.servePost(w, r)
	case http.MethodGet:
		h.serveGet(w, r)
	default:
		writeTransportError(w, http.StatusMethodNotAllowed, gqlerr.New(gqlerr.CodeOperationValidation, "method %s not allowed", r.Method))
	}
}

func (h *Handler) servePost(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		writeTransportError(w, http.StatusBadRequest, gqlerr.New(gqlerr.CodeOperationValidation, "request must include a body"))
		return
	}

	raw := json.RawMessage{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeTransportError(w, http.StatusBadRequest, gqlerr.Wrap(gqlerr.CodeOperationValidation, err, "decoding request body"))
		return
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var batch []requestBody
		if err := json.Unmarshal(raw, &batch); err != nil {
			writeTransportError(w, http.StatusBadRequest, gqlerr.Wrap(gqlerr.CodeOperationValidation, err, "decoding batch request body"))
			return
		}
		h.respondBatch(w, r.Context(), batch)
		return
	}

	var body requestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeTransportError(w, http.StatusBadRequest, gqlerr.Wrap(gqlerr.CodeOperationValidation, err, "decoding request body"))
		return
	}
	h.respondOne(w, r.Context(), body, negotiateContentType(r))
}

func (h *Handler) serveGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body := requestBody{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if v := q.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &body.Variables); err != nil {
			writeTransportError(w, http.StatusBadRequest, gqlerr.Wrap(gqlerr.CodeOperationValidation, err, "decoding variables parameter"))
			return
		}
	}
	if e := q.Get("extensions"); e != "" {
		if err := json.Unmarshal([]byte(e), &body.Extensions); err != nil {
			writeTransportError(w, http.StatusBadRequest, gqlerr.Wrap(gqlerr.CodeOperationValidation, err, "decoding extensions parameter"))
			return
		}
	}
	h.respondOne(w, r.Context(), body, negotiateContentType(r))
}

func (h *Handler) respondOne(w http.ResponseWriter, ctx context.Context, body requestBody, contentType string) {
	if env, ok := h.rejectIntrospection(body); !ok {
		writeEnvelope(w, http.StatusOK, contentType, env)
		return
	}
	result := h.Coordinator.Execute(ctx, body.toCoordinatorRequest())
	writeEnvelope(w, http.StatusOK, contentType, dataEnvelope(result))
}

func (h *Handler) respondBatch(w http.ResponseWriter, ctx context.Context, batch []requestBody) {
	envelopes := make([]envelope, len(batch))
	var wg sync.WaitGroup
	for i, body := range batch {
		wg.Add(1)
		go func(i int, body requestBody) {
			defer wg.Done()
			if env, ok := h.rejectIntrospection(body); !ok {
				envelopes[i] = env
				return
			}
			result := h.Coordinator.Execute(ctx, body.toCoordinatorRequest())
			envelopes[i] = dataEnvelope(result)
		}(i, body)
	}
	wg.Wait()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(envelopes)
}

// rejectIntrospection enforces the optional introspection toggle
// (spec.md §6) by looking for a top-level __schema/__type selection
// before the operation ever reaches the coordinator. It reparses the
// query text, the cost of which only matters when introspection is
// actually disabled.
func (h *Handler) rejectIntrospection(body requestBody) (envelope, bool) {
	if h.Graph.Introspection {
		return envelope{}, true
	}
	doc, err := queryparse.Parse(body.Query, body.OperationName)
	if err != nil {
		// Let the real pipeline produce the parse error.
		return envelope{}, true
	}
	if doc.SelectionSet == nil {
		return envelope{}, true
	}
	for _, sel := range doc.SelectionSet.Selections {
		if sel.Name == "__schema" || sel.Name == "__type" {
			return dataEnvelope(coordinator.Result{
				Errors: []*gqlerr.Error{gqlerr.New(gqlerr.CodeOperationValidation, "introspection is disabled")},
			}), false
		}
	}
	return envelope{}, true
}

func writeTransportError(w http.ResponseWriter, status int, err *gqlerr.Error) {
	writeEnvelope(w, status, "application/json", errorEnvelope(err))
}

func writeEnvelope(w http.ResponseWriter, status int, contentType string, env envelope) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// negotiateContentType implements spec.md §6's "Content-Type
// negotiated via Accept": a client that explicitly asks for the
// GraphQL-over-HTTP response media type gets it back verbatim,
// otherwise responses default to plain JSON for compatibility with
// clients that never set Accept.
func negotiateContentType(r *http.Request) string {
	if strings.Contains(r.Header.Get("Accept"), "application/graphql-response+json") {
		return "application/graphql-response+json"
	}
	return "application/json"
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HealthHandler serves spec.md §6's health endpoint: GET <path> ->
// 200 {"status":"healthy"}. cmd/gateway mounts it at cfg.Health.Path
// on either the main listener or a separate one at cfg.Health.Listen,
// per config.HealthConfig.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
}
