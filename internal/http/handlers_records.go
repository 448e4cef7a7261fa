package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"energydash/internal/core"
	"energydash/internal/log"
	"energydash/internal/metrics"
)

const commitTimeout = 30 * time.Second

// Element ids of the dashboard forms.
const (
	formAdd    = "add-form"
	formFilter = "filter-form"
	formImport = "import-form"
)

// changed is the response to every successful edit of the working set.
func changed(pc *pageContext) *HTMXResponseBuilder {
	return NewHTMXResponse().TriggerRecordsChanged(pc.Session.Reconciler.PendingCount())
}

// errorResponse maps a reconciler error to a notice.
func (s *Server) errorResponse(r *http.Request, pc *pageContext, err error, op string) *HTMXResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return UnprocessableEntityError(pc.L.T("notice.invalid", fieldLabel(pc, verr.Field)))
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(pc.L.T("notice.notFound"))
	}
	s.events.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
		log.NewFields().WithSession(pc.Session.ID, pc.Session.Reconciler.PendingCount()))
	return InternalServerError(pc.L.T("notice.commitFailed"))
}

// fieldLabel returns the translated label of a form field.
func fieldLabel(pc *pageContext, field string) string {
	switch {
	case field == "":
		return "-"
	case strings.HasPrefix(field, "min"), strings.HasPrefix(field, "max"):
		return pc.L.T("filter." + field)
	}
	return pc.L.T("column." + field)
}

// parseBody reads a form or JSON body.
func parseBody(r *http.Request, pc *pageContext) (*RequestBodyParser, *HTMXResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, ErrorResponse(http.StatusRequestEntityTooLarge, pc.L.T("notice.invalid", "body"))
		}
		return nil, BadRequestError(pc.L.T("notice.invalid", "body"))
	}
	return p, nil
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	p, fail := parseBody(r, pc)
	if fail != nil {
		fail.Write(w)
		return
	}
	fields, err := ParseRecordFields(p)
	if err != nil {
		s.errorResponse(r, pc, err, log.OpCreate).Write(w)
		return
	}

	rec, err := pc.Session.Reconciler.Add(fields)
	if err != nil {
		s.errorResponse(r, pc, err, log.OpCreate).Write(w)
		return
	}
	s.events.LogRecordChange(r.Context(), log.OpCreate, pc.Session.ID, rec.ID, rec.Period, rec.Consumption, pc.Session.Reconciler.PendingCount())

	s.finish(w, r, pc, changed(pc).
		TriggerFormReset(formAdd).
		TriggerSuccessNotification(pc.L.T("notice.added")))
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	id := r.PathValue("id")
	p, fail := parseBody(r, pc)
	if fail != nil {
		fail.Write(w)
		return
	}
	fields, err := ParseRecordFields(p)
	if err != nil {
		s.errorResponse(r, pc, err, log.OpUpdate).Write(w)
		return
	}
	if fields.Empty() {
		if _, ok := pc.Session.Reconciler.Get(id); !ok {
			NotFoundError(pc.L.T("notice.notFound")).Write(w)
			return
		}
		s.finish(w, r, pc, changed(pc))
		return
	}

	rec, err := pc.Session.Reconciler.Update(id, fields)
	if err != nil {
		s.errorResponse(r, pc, err, log.OpUpdate).Write(w)
		return
	}
	s.events.LogRecordChange(r.Context(), log.OpUpdate, pc.Session.ID, rec.ID, rec.Period, rec.Consumption, pc.Session.Reconciler.PendingCount())

	s.finish(w, r, pc, changed(pc).TriggerSuccessNotification(pc.L.T("notice.updated")))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	id := r.PathValue("id")
	if err := pc.Session.Reconciler.Remove(id); err != nil {
		s.errorResponse(r, pc, err, log.OpDelete).Write(w)
		return
	}
	s.events.LogRecordChange(r.Context(), log.OpDelete, pc.Session.ID, id, "", 0, pc.Session.Reconciler.PendingCount())

	s.finish(w, r, pc, changed(pc).TriggerSuccessNotification(pc.L.T("notice.deleted")))
}

func (s *Server) handleRevertRecord(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	id := r.PathValue("id")
	if err := pc.Session.Reconciler.Revert(id); err != nil {
		s.errorResponse(r, pc, err, log.OpRevert).Write(w)
		return
	}
	s.events.LogRecordChange(r.Context(), log.OpRevert, pc.Session.ID, id, "", 0, pc.Session.Reconciler.PendingCount())

	s.finish(w, r, pc, changed(pc).TriggerSuccessNotification(pc.L.T("notice.reverted")))
}

// handleCommit writes the working set to the store. On failure every
// pending edit is kept so the user can retry.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	rc := pc.Session.Reconciler
	if !rc.HasChanges() {
		s.finish(w, r, pc, NewHTMXResponse().TriggerInfoNotification(pc.L.T("notice.nothingToSave")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commitTimeout)
	defer cancel()

	n, err := rc.Commit(ctx, s.store)
	metrics.CommitsTotal.WithLabelValues(metrics.StatusOf(err)).Inc()
	if err != nil {
		s.events.LogError(r.Context(), "Commit failed", err, log.ComponentWorkset, log.OpCommit,
			log.NewFields().WithSession(pc.Session.ID, rc.PendingCount()))
		InternalServerError(pc.L.T("notice.commitFailed")).Write(w)
		return
	}
	metrics.RecordsCommitted.Add(float64(n))
	s.events.LogCommit(r.Context(), pc.Session.ID, n, len(rc.Working()))

	s.finish(w, r, pc, changed(pc).TriggerSuccessNotification(pc.L.T("notice.saved", n)))
}

// handleDiscard drops every pending edit and reloads the baseline from the
// store, picking up commits made by other sessions.
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	if err := pc.Session.Rebase(r.Context(), s.store); err != nil {
		s.requestLogger(r).WarnContext(r.Context(), "Reload after discard failed, keeping old baseline",
			log.FieldError, err,
			log.FieldSessionID, pc.Session.ID)
		pc.Session.Reconciler.DiscardAll()
	}
	s.requestLogger(r).DebugContext(r.Context(), "Pending edits discarded",
		log.FieldSessionID, pc.Session.ID,
		log.FieldOperation, log.OpDiscard)

	s.finish(w, r, pc, changed(pc).TriggerInfoNotification(pc.L.T("notice.discarded")))
}

// handleFilter stores the filter bounds of the session. A "clear" field
// resets them.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	p, fail := parseBody(r, pc)
	if fail != nil {
		fail.Write(w)
		return
	}
	if p.Has("clear") {
		pc.Session.Filter = core.Filter{}
		s.finish(w, r, pc, changed(pc).TriggerFormReset(formFilter))
		return
	}

	f, err := ParseFilter(p)
	if err != nil {
		s.errorResponse(r, pc, err, log.OpValidate).Write(w)
		return
	}
	pc.Session.Filter = f
	s.finish(w, r, pc, changed(pc).TriggerInfoNotification(pc.L.T("notice.filterApplied")))
}

// handleSort toggles the sort of the records table on the submitted field.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	p, fail := parseBody(r, pc)
	if fail != nil {
		fail.Write(w)
		return
	}
	next := pc.Session.Sort.Toggle(p.Get("field"))
	if !next.Valid() {
		UnprocessableEntityError(pc.L.T("notice.invalid", p.Get("field"))).Write(w)
		return
	}
	pc.Session.Sort = next
	s.finish(w, r, pc, changed(pc))
}
