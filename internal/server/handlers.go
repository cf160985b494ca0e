package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/api/generated"
	"github.com/dgnsrekt/qwdemo/internal/catalog"
	"github.com/dgnsrekt/qwdemo/internal/inspect"
	"github.com/dgnsrekt/qwdemo/internal/relay"
)

type Server struct {
	catalog *catalog.Catalog
	rescan  *Rescanner
	relay   *relay.Relay
	events  *Broadcaster
	logger  *zap.Logger
}

// NewServer creates the HTTP handlers. relay may be nil to serve the catalog
// without streaming.
func NewServer(cat *catalog.Catalog, rl *relay.Relay, logger *zap.Logger) *Server {
	return &Server{
		catalog: cat,
		rescan:  NewRescanner(cat, logger),
		relay:   rl,
		logger:  logger,
	}
}

// Rescanner returns the catalog rescanner shared with the periodic loop.
func (s *Server) Rescanner() *Rescanner { return s.rescan }

// Compile-time interface verification
var _ generated.StrictServerInterface = (*Server)(nil)

// GetHealth implements generated.StrictServerInterface
func (s *Server) GetHealth(ctx context.Context, request generated.GetHealthRequestObject) (generated.GetHealthResponseObject, error) {
	viewers := 0
	if s.relay != nil {
		viewers = s.relay.Hub().Clients()
	}
	return generated.GetHealth200JSONResponse{
		Status:  "ok",
		Demos:   len(s.catalog.List("")),
		Viewers: viewers,
	}, nil
}

// ListDemos implements generated.StrictServerInterface
func (s *Server) ListDemos(ctx context.Context, request generated.ListDemosRequestObject) (generated.ListDemosResponseObject, error) {
	family := ""
	if request.Params.Family != nil {
		family = string(*request.Params.Family)
	}
	entries := s.catalog.List(family)
	demos := make(generated.ListDemos200JSONResponse, 0, len(entries))
	for _, e := range entries {
		demos = append(demos, toDemo(e))
	}
	return demos, nil
}

// GetDemo implements generated.StrictServerInterface
func (s *Server) GetDemo(ctx context.Context, request generated.GetDemoRequestObject) (generated.GetDemoResponseObject, error) {
	entry, err := s.catalog.Get(request.Name)
	if errors.Is(err, catalog.ErrNotFound) {
		return generated.GetDemo404JSONResponse{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return generated.GetDemo200JSONResponse(toDemo(entry)), nil
}

// GetDemoReport implements generated.StrictServerInterface
func (s *Server) GetDemoReport(ctx context.Context, request generated.GetDemoReportRequestObject) (generated.GetDemoReportResponseObject, error) {
	rep, err := s.catalog.Inspect(request.Name)
	if errors.Is(err, catalog.ErrNotFound) {
		return generated.GetDemoReport404JSONResponse{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	if !rep.OK() {
		s.logger.Debug("demo has framing errors",
			zap.String("demo", request.Name),
			zap.String("error", rep.Error),
		)
	}
	return generated.GetDemoReport200JSONResponse(toReport(rep)), nil
}

// RescanDemos implements generated.StrictServerInterface
func (s *Server) RescanDemos(ctx context.Context, request generated.RescanDemosRequestObject) (generated.RescanDemosResponseObject, error) {
	res, err := s.rescan.Rescan()
	if errors.Is(err, ErrRescanInProgress) {
		return generated.RescanDemos409JSONResponse{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return generated.RescanDemos200JSONResponse{
		Demos:     res.Demos,
		ScannedAt: res.ScannedAt,
	}, nil
}

// GetRelayStatus implements generated.StrictServerInterface
func (s *Server) GetRelayStatus(ctx context.Context, request generated.GetRelayStatusRequestObject) (generated.GetRelayStatusResponseObject, error) {
	status := generated.GetRelayStatus200JSONResponse{Groups: []generated.RelayGroup{}}
	if s.relay != nil {
		status.Clients = s.relay.Hub().Clients()
		for _, g := range s.relay.Hub().Groups() {
			status.Groups = append(status.Groups, generated.RelayGroup{Demo: g.Demo, Viewers: g.Viewers})
		}
	}
	return status, nil
}

// ServeRelay handles the websocket upgrade on /relay/demos/{name}.
func (s *Server) ServeRelay(w http.ResponseWriter, r *http.Request) {
	s.relay.Serve(w, r, chi.URLParam(r, "name"))
}

func toDemo(e catalog.Entry) generated.Demo {
	return generated.Demo{
		Name:        e.Name,
		Family:      generated.DemoFamily(e.Family),
		Compression: generated.DemoCompression(e.Compression),
		Size:        e.Size,
		Modified:    e.ModTime,
	}
}

func toReport(rep *inspect.Report) generated.Report {
	out := generated.Report{
		Family:       rep.Family,
		Records:      rep.Records,
		Kinds:        rep.Kinds,
		Bytes:        rep.Bytes,
		Start:        rep.Start,
		End:          rep.End,
		Duration:     rep.Duration,
		Disconnected: rep.Disconnected,
	}
	if out.Kinds == nil {
		out.Kinds = map[string]int{}
	}
	if len(rep.Routes) > 0 {
		out.Routes = &rep.Routes
	}
	if rep.GameDir != "" {
		out.Gamedir = ptr(rep.GameDir)
	}
	if rep.Level != "" {
		out.Level = ptr(rep.Level)
	}
	if rep.Error != "" {
		out.Error = ptr(rep.Error)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(generated.Error{Error: message})
}
