package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/graphbridge/internal/category"
	"github.com/vk/graphbridge/internal/schema"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

type portView struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Type        string          `json:"type"`
	Tooltip     string          `json:"tooltip,omitempty"`
	Hidden      bool            `json:"hidden,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
	Allowed     []string        `json:"allowed,omitempty"`
}

type nodeView struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	MenuPath    string     `json:"menu_path"`
	Kind        string     `json:"kind"`
	Flow        bool       `json:"flow"`
	Networked   bool       `json:"networked,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Tooltip     string     `json:"tooltip,omitempty"`
	Inputs      []portView `json:"inputs,omitempty"`
	Outputs     []portView `json:"outputs,omitempty"`
	Successors  []string   `json:"successors,omitempty"`
}

type entryView struct {
	Segment  string      `json:"segment"`
	Path     string      `json:"path"`
	Icon     string      `json:"icon,omitempty"`
	Priority int         `json:"priority"`
	Children []entryView `json:"children,omitempty"`
	Nodes    []string    `json:"nodes,omitempty"`
}

func viewPorts(ports []schema.PortDescriptor) []portView {
	out := make([]portView, 0, len(ports))
	for _, p := range ports {
		v := portView{Name: p.Name, DisplayName: p.DisplayName, Type: p.ValueType.String(), Tooltip: p.Tooltip, Hidden: p.Hidden}
		if p.HasDefault() {
			if raw, err := ctyjson.Marshal(p.Default, p.Default.Type()); err == nil {
				v.Default = raw
			}
		}
		for _, t := range p.Constraint {
			v.Allowed = append(v.Allowed, t.Name())
		}
		out = append(out, v)
	}
	return out
}

func viewNode(d *schema.NodeDescriptor) nodeView {
	v := nodeView{
		ID:          d.ID,
		DisplayName: d.DisplayName,
		MenuPath:    d.MenuPath,
		Kind:        d.Kind.String(),
		Flow:        d.IsFlowNode,
		Networked:   d.Metadata.Networked,
		Icon:        d.Metadata.Icon,
		Tooltip:     d.Metadata.Tooltip,
		Inputs:      viewPorts(d.Inputs),
		Outputs:     viewPorts(d.Outputs),
	}
	for _, s := range d.Successors() {
		v.Successors = append(v.Successors, s.Name)
	}
	return v
}

func viewEntry(e *category.Entry) entryView {
	v := entryView{Segment: e.Segment, Path: e.Path, Icon: e.Icon, Priority: e.Priority}
	for _, c := range e.Children {
		v.Children = append(v.Children, viewEntry(c))
	}
	for _, d := range e.Leaves {
		v.Nodes = append(v.Nodes, d.ID)
	}
	return v
}

func (b *Bridge) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		b.logger.Error("Failed to encode response.", "error", err)
	}
}

func (b *Bridge) writeError(w http.ResponseWriter, status int, err error) {
	b.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// healthHandler reports OK once the first rebuild has been published.
func (b *Bridge) healthHandler(w http.ResponseWriter, r *http.Request) {
	b.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	if b.Report() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "NOT BUILT")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (b *Bridge) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := b.Index()
	if err != nil {
		b.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	root := idx.Root()
	if path := r.URL.Query().Get("path"); path != "" {
		e, ok := idx.Lookup(path)
		if !ok {
			b.writeError(w, http.StatusNotFound, fmt.Errorf("no category at '%s'", path))
			return
		}
		root = e
	}
	b.writeJSON(w, http.StatusOK, viewEntry(root))
}

func (b *Bridge) searchHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := b.Index()
	if err != nil {
		b.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	q := r.URL.Query()
	var found []*schema.NodeDescriptor
	switch q.Get("mode") {
	case "", "prefix":
		found = idx.Search(q.Get("q"))
	case "substring":
		found = idx.SearchSubstring(q.Get("q"))
	default:
		b.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown search mode '%s'", q.Get("mode")))
		return
	}
	views := make([]nodeView, 0, len(found))
	for _, d := range found {
		views = append(views, viewNode(d))
	}
	b.writeJSON(w, http.StatusOK, views)
}

func (b *Bridge) nodeHandler(w http.ResponseWriter, r *http.Request) {
	d, err := b.Descriptor(r.PathValue("id"))
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrUnknownDescriptor) {
			status = http.StatusNotFound
		}
		b.writeError(w, status, err)
		return
	}
	b.writeJSON(w, http.StatusOK, viewNode(d))
}

// Handler returns the read-only HTTP surface of the bridge.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", b.healthHandler)
	mux.HandleFunc("GET /categories", b.categoriesHandler)
	mux.HandleFunc("GET /search", b.searchHandler)
	mux.HandleFunc("GET /nodes/{id}", b.nodeHandler)
	return mux
}

// StartServer runs the HTTP server on the configured port in the
// background. A zero port disables it.
func (b *Bridge) StartServer() {
	if b.config.HTTPPort <= 0 {
		b.logger.Debug("HTTP server not started: disabled")
		return
	}
	addr := fmt.Sprintf(":%d", b.config.HTTPPort)
	b.httpServer = &http.Server{
		Addr:              addr,
		Handler:           b.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		b.logger.Info("HTTP server starting", "address", fmt.Sprintf("http://localhost%s", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := b.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("HTTP server failed unexpectedly", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server, if it was started.
func (b *Bridge) Shutdown(ctx context.Context) error {
	if b.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b.logger.Info("Shutting down HTTP server...")
	if err := b.httpServer.Shutdown(ctx); err != nil {
		b.logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	b.logger.Debug("HTTP server shut down gracefully.")
	return nil
}
