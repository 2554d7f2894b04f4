package http

import (
	"net/http"
	"time"

	"ledgerbook/internal/transport"
)

// DispatchResponse acknowledges a write that was sent but not confirmed.
type DispatchResponse struct {
	CommandID string `json:"commandId"`
	Operation string `json:"operation"`
	SentAt    string `json:"sentAt"`
}

func toDispatchResponse(d transport.Dispatch) DispatchResponse {
	return DispatchResponse{
		CommandID: d.CommandID,
		Operation: d.Operation.String(),
		SentAt:    d.SentAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.opts.Ledger.ListEntries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transport.EntryWire, len(entries))
	for i, e := range entries {
		out[i] = transport.EntryToWire(e)
	}
	NewResponse().Data(out).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := req.Entry()
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.opts.Ledger.AppendEntry(r.Context(), entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusAccepted).
		Data(toDispatchResponse(d)).
		Notify(NotificationSuccess, "Transaction saved").
		Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	row, err := parseRow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := req.Entry()
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.opts.Ledger.UpdateEntry(r.Context(), row, entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusAccepted).
		Data(toDispatchResponse(d)).
		Notify(NotificationSuccess, "Transaction updated").
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	row, err := parseRow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.opts.Ledger.DeleteEntry(r.Context(), row)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusAccepted).
		Data(toDispatchResponse(d)).
		Notify(NotificationSuccess, "Transaction deleted").
		Write(w)
}
