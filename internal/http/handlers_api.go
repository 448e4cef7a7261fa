package http

import (
	"errors"
	"net/http"

	"energydash/internal/core"
	"energydash/internal/log"
	"energydash/internal/workset"
)

type (
	apiRecord struct {
		core.Record
		Pending bool   `json:"pending"`
		Change  string `json:"change,omitempty"`
	}

	apiRecordsResponse struct {
		Records      []apiRecord  `json:"records"`
		PendingCount int          `json:"pendingCount"`
		Summary      core.Summary `json:"summary"`
	}
)

// handleAPIRecords returns the working set of the caller's session, or the
// committed records when the request carries no live session. Query
// parameters use the filter form keys.
func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(formValues(r.URL.Query()))
	if err != nil {
		body := map[string]string{"error": err.Error()}
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			body["field"] = verr.Field
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
		return
	}

	var (
		records []core.Record
		pending map[string]workset.Change
		live    bool
	)
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			sess.Lock()
			records = sess.Reconciler.Filtered(filter)
			pending = sess.Reconciler.Pending()
			sess.Unlock()
			live = true
		}
	}
	if !live {
		all, err := s.store.LoadRecords(r.Context())
		if err != nil {
			s.requestLogger(r).ErrorContext(r.Context(), "Failed to load records",
				log.FieldError, err,
				log.FieldOperation, log.OpRead)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "records unavailable"})
			return
		}
		core.RecomputeSavings(all)
		records = filter.Apply(all)
	}

	resp := apiRecordsResponse{
		Records:      make([]apiRecord, 0, len(records)),
		PendingCount: len(pending),
		Summary:      core.Summarize(records),
	}
	for _, rec := range records {
		item := apiRecord{Record: rec}
		if c, ok := pending[rec.ID]; ok {
			item.Pending = true
			item.Change = string(c.Kind)
		}
		resp.Records = append(resp.Records, item)
	}
	writeJSON(w, http.StatusOK, resp)
}
