package http

import (
	"net/http"

	"ledgerbook/internal/middleware/trace"
	"ledgerbook/internal/services"
	"ledgerbook/internal/transport"
)

// RuleResponse is a rule as the API shows it.
type RuleResponse struct {
	transport.RuleWire
	Status string `json:"status"`
}

// SummaryResponse reports a manual batch.
type SummaryResponse struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Retired   int      `json:"retired"`
	Skipped   int      `json:"skipped"`
	Cancelled bool     `json:"cancelled,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func toRuleResponses(views []services.RuleView) []RuleResponse {
	out := make([]RuleResponse, len(views))
	for i, v := range views {
		out[i] = RuleResponse{RuleWire: transport.RuleToWire(v.RecurringRule), Status: v.Status.String()}
	}
	return out
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	if s.opts.AutoRunOnList {
		s.autoRun(trace.GetRequestID(r.Context()))
	}

	views, err := s.opts.Rules.List(r.Context(), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(toRuleResponses(views)).Write(w)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := req.Rule()
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.opts.Rules.Create(r.Context(), rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusAccepted).
		Header("Location", "/api/recurring/"+id).
		Data(map[string]string{"id": id}).
		Notify(NotificationSuccess, "Recurring transaction saved").
		Write(w)
}

func (s *Server) handleEditRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req RuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := req.Rule()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.opts.Rules.Edit(r.Context(), id, rule); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusAccepted).
		Data(map[string]string{"id": id}).
		Notify(NotificationSuccess, "Recurring transaction updated").
		Write(w)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.opts.Rules.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusAccepted).
		Data(map[string]string{"id": id}).
		Notify(NotificationSuccess, "Recurring transaction deleted").
		Write(w)
}

// handleProcess runs a manual batch and reports its outcome.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	summary := s.opts.Processor.RunManual(r.Context())

	resp := SummaryResponse{
		Total:     summary.Total,
		Processed: summary.Processed,
		Retired:   summary.Retired,
		Skipped:   summary.Skipped,
		Cancelled: summary.Cancelled,
	}
	for _, e := range summary.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}

	level := NotificationSuccess
	if len(summary.Errors) > 0 {
		level = NotificationWarning
	}
	NewResponse().Data(resp).Notify(level, summary.Message()).Write(w)
}
