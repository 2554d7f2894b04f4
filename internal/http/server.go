package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ledgerbook/internal/core"
	"ledgerbook/internal/middleware/trace"
	"ledgerbook/internal/services"
	"ledgerbook/internal/transport"
)

type (
	// BatchRunner runs recurring batches.
	BatchRunner interface {
		AutoRun(ctx context.Context)
		RunManual(ctx context.Context) services.Summary
	}

	RuleManager interface {
		Create(ctx context.Context, r core.RecurringRule) (string, error)
		Edit(ctx context.Context, id string, details core.RecurringRule) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context, today core.Date) ([]services.RuleView, error)
	}

	Ledger interface {
		ListEntries(ctx context.Context) ([]core.LedgerEntry, error)
		AppendEntry(ctx context.Context, e core.LedgerEntry) (transport.Dispatch, error)
		UpdateEntry(ctx context.Context, row int, e core.LedgerEntry) (transport.Dispatch, error)
		DeleteEntry(ctx context.Context, row int) (transport.Dispatch, error)
	}
)

// Options wires the server to its services.
type Options struct {
	Processor BatchRunner
	Rules     RuleManager
	Ledger    Ledger

	// AutoRunOnList starts a silent batch whenever the rule list is read.
	AutoRunOnList bool

	Location *time.Location
	Clock    func() time.Time
}

type Server struct {
	http.Server
	opts  Options
	trace *trace.Middleware

	// Background batches started by page loads run on baseCtx, not on
	// the request context, and are awaited on shutdown.
	baseCtx    context.Context
	cancelBase context.CancelFunc
	background sync.WaitGroup
}

func NewServer(addr string, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:       opts,
		trace:      trace.NewMiddleware(nil),
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleHealth)

	mux.HandleFunc("GET /api/recurring", s.handleListRules)
	mux.HandleFunc("POST /api/recurring", s.handleCreateRule)
	mux.HandleFunc("PUT /api/recurring/{id}", s.handleEditRule)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRule)
	mux.HandleFunc("POST /api/recurring/process", s.handleProcess)

	mux.HandleFunc("GET /api/transactions", s.handleListEntries)
	mux.HandleFunc("POST /api/transactions", s.handleCreateEntry)
	mux.HandleFunc("PUT /api/transactions/{row}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/transactions/{row}", s.handleDeleteEntry)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.trace.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests, then waits for background batches.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.cancelBase()
		slog.WarnContext(ctx, "Background batches still running at shutdown")
		return errors.Join(err, ctx.Err())
	}
	s.cancelBase()
	return err
}

// Metrics exposes request counters from the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

func (s *Server) today() core.Date {
	return core.DateOf(s.opts.Clock().In(s.opts.Location))
}

// autoRun starts a silent batch detached from the request.
func (s *Server) autoRun(requestID string) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx := context.WithValue(s.baseCtx, trace.RequestIDKey, requestID)
		s.opts.Processor.AutoRun(ctx)
	}()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var b *ResponseBuilder
	switch {
	case errors.Is(err, errBadBody):
		b = BadRequestError(err.Error())
	case errors.Is(err, services.ErrRuleNotFound):
		b = NotFoundError(err.Error())
	case isValidationError(err):
		b = UnprocessableEntityError(err.Error())
	case errors.Is(err, transport.ErrTransport):
		b = BadGatewayError(err.Error())
	default:
		b = InternalServerError(err.Error())
	}
	if b.statusCode >= 500 {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	b.Write(w)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrEmptyPayee,
		core.ErrEmptyCategory,
		core.ErrUnknownFrequency,
		core.ErrUnknownKind,
		core.ErrEndBeforeStart,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
