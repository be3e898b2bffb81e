// Package httpapi exposes an application over HTTP: command discovery,
// execution, and JSON-serialized output. It is the structured-client
// channel; artifacts are maps instead of styled text or widgets.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/render"
	"github.com/aretw0/facet/pkg/run"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/view"
)

// Server hosts one application spec on the HTTP channel with its own
// view registry and resolver.
type Server struct {
	app     *spec.App
	coord   *run.Coordinator
	views   *view.Registry
	logger  *slog.Logger
	metrics run.Registerer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics registers the coordinator's counters on reg.
func WithMetrics(reg run.Registerer) Option {
	return func(s *Server) { s.metrics = reg }
}

// NewHandler creates the HTTP handler for sp.
func NewHandler(sp *spec.App, opts ...Option) http.Handler {
	views := view.NewRegistry()
	s := &Server{
		app:    sp,
		views:  views,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	resolver := render.New(jsonBuilder{}, render.WithLogger(s.logger))
	coordOpts := []run.Option{run.WithLogger(s.logger)}
	if s.metrics != nil {
		coordOpts = append(coordOpts, run.WithMetrics(s.metrics))
	}
	s.coord = run.NewCoordinator(sp, views, resolver, coordOpts...)

	r := chi.NewRouter()
	r.Get("/health", s.getHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/commands", s.listCommands)
		r.Post("/commands/{name}/run", s.runCommand)
		r.Get("/commands/{name}/output", s.getOutput)
	})
	return r
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok", "app": s.app.Title})
}

// listCommands handles GET /v1/commands.
func (s *Server) listCommands(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0, len(s.app.Commands))
	for _, cmd := range s.app.Commands {
		out = append(out, describeCommand(cmd))
	}
	writeJSON(w, s.logger, map[string]any{"commands": out})
}

type runRequest struct {
	Args map[string]any `json:"args"`
}

// runCommand handles POST /v1/commands/{name}/run. The run completes
// before the response is written, background mode included; HTTP
// clients poll output, they do not hold widget references.
func (s *Server) runCommand(w http.ResponseWriter, r *http.Request) {
	cmd := s.lookup(w, r)
	if cmd == nil {
		return
	}

	var body runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("run: invalid request body", "err", err)
			return
		}
	}

	inv := s.coord.Execute(r.Context(), cmd, body.Args)
	if err := inv.Wait(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Run aborted: %v", err), http.StatusGatewayTimeout)
		return
	}

	resp := map[string]any{
		"status": inv.Status().String(),
		"output": s.outputOf(cmd),
	}
	if result := inv.Result(); result != nil {
		resp["result"] = block.Serialize(block.Coerce(result))
	}
	if err := inv.Err(); err != nil {
		resp["error"] = errorBody(err)
	}
	writeJSON(w, s.logger, resp)
}

// getOutput handles GET /v1/commands/{name}/output.
func (s *Server) getOutput(w http.ResponseWriter, r *http.Request) {
	cmd := s.lookup(w, r)
	if cmd == nil {
		return
	}
	writeJSON(w, s.logger, map[string]any{"output": s.outputOf(cmd)})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *spec.Command {
	name := chi.URLParam(r, "name")
	group := r.URL.Query().Get("group")
	cmd, ok := s.app.Command(group, name)
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown command %q", name), http.StatusNotFound)
		return nil
	}
	return cmd
}

func (s *Server) outputOf(cmd *spec.Command) []any {
	entry, ok := s.views.Lookup(cmd.Group, cmd.Name)
	if !ok {
		return []any{}
	}
	out := make([]any, 0)
	for _, art := range entry.Artifacts() {
		out = append(out, sanitize(art))
	}
	return out
}

// sanitize converts a resolved artifact into plain JSON-encodable data.
// Containers are snapshot at this point: a later GET sees whatever a
// background run has appended or replaced since.
func sanitize(art render.Artifact) any {
	switch v := art.(type) {
	case *jsonContainer:
		return v.snapshot()
	case *view.TextBlock:
		return map[string]any{"type": "text", "lines": v.Lines()}
	case view.TextChunk:
		return map[string]any{"type": "text", "lines": []string{string(v)}}
	case []render.Artifact:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = sanitize(item)
		}
		return items
	case map[string]any:
		if items, ok := v["items"].([]render.Artifact); ok {
			cp := make(map[string]any, len(v))
			for k, val := range v {
				cp[k] = val
			}
			cp["items"] = sanitize(items)
			return cp
		}
		return v
	default:
		return v
	}
}

func errorBody(err error) map[string]any {
	var verr *spec.ValidationError
	if errors.As(err, &verr) {
		return map[string]any{
			"kind":    "validation",
			"param":   verr.Param,
			"message": verr.Error(),
		}
	}
	var execErr *run.ExecutionError
	if errors.As(err, &execErr) {
		body := map[string]any{"kind": "execution", "message": execErr.Error()}
		if execErr.Trace != "" {
			body["trace"] = execErr.Trace
		}
		return body
	}
	return map[string]any{"kind": "error", "message": err.Error()}
}

func describeCommand(cmd *spec.Command) map[string]any {
	params := make([]map[string]any, 0, len(cmd.Params))
	for _, p := range cmd.Params {
		pm := map[string]any{
			"name":     p.Name,
			"type":     string(p.Type),
			"required": p.Required,
		}
		if p.Help != "" {
			pm["help"] = p.Help
		}
		if p.Default != nil {
			pm["default"] = p.Default
		}
		if len(p.Choices) > 0 {
			pm["choices"] = p.Choices
		}
		params = append(params, pm)
	}
	out := map[string]any{
		"name":   cmd.Name,
		"mode":   cmd.Mode.String(),
		"params": params,
	}
	if cmd.Group != "" {
		out["group"] = cmd.Group
	}
	if cmd.Help != "" {
		out["help"] = cmd.Help
	}
	return out
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}

// jsonBuilder resolves emissions into JSON-friendly maps. Containers are
// snapshot on serialization; the HTTP channel has no live display to
// refresh.
type jsonBuilder struct{}

func (jsonBuilder) Markup(s string) (render.Artifact, error) {
	return map[string]any{"type": "markdown", "content": s}, nil
}

func (jsonBuilder) Plain(s string) (render.Artifact, error) {
	return view.TextChunk(s), nil
}

func (jsonBuilder) Block(ctx context.Context, r *render.Resolver, b block.Block) (render.Artifact, error) {
	if txt, ok := b.(*block.Text); ok {
		return view.TextChunk(txt.Content), nil
	}
	return block.Serialize(b), nil
}

func (jsonBuilder) Group(items []render.Artifact) render.Artifact {
	return map[string]any{"type": "group", "items": items}
}

func (jsonBuilder) Container(region int64) render.Container {
	return &jsonContainer{region: region}
}

// jsonContainer is a live container whose artifact is the container
// itself: a response serializes it via snapshot, so streamed appends
// and dynamic replacements made after the first pass still show up.
type jsonContainer struct {
	region int64

	mu       sync.Mutex
	children []render.Artifact
}

func (c *jsonContainer) Artifact() render.Artifact { return c }

func (c *jsonContainer) Append(child render.Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = append(c.children, child)
}

func (c *jsonContainer) Replace(children []render.Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = children
}

// snapshot copies the children under the lock; a background run can
// still be appending while a response serializes.
func (c *jsonContainer) snapshot() map[string]any {
	c.mu.Lock()
	children := make([]render.Artifact, len(c.children))
	copy(children, c.children)
	c.mu.Unlock()

	items := make([]any, len(children))
	for i, child := range children {
		items[i] = sanitize(child)
	}
	kind := "dynamic"
	if c.region == 0 {
		kind = "stream"
	}
	out := map[string]any{"type": kind, "items": items}
	if c.region != 0 {
		out["region"] = c.region
	}
	return out
}
