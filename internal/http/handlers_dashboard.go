package http

import (
	"net/http"
)

// Template names.
const (
	tmplIndex   = "index.html"
	tmplRecords = "records"
	tmplSummary = "summary"
	tmplStatus  = "status"
	tmplRow     = "row"
	tmplRowEdit = "row_edit"
)

// handleDashboard renders the full page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	s.render(w, r, tmplIndex, s.buildPage(pc))
}

// handleRecordsPartial renders the records table. Clicking a column header
// is handled by handleSort, so the view always reflects the session state.
func (s *Server) handleRecordsPartial(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	s.render(w, r, tmplRecords, buildTable(pc))
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	s.render(w, r, tmplSummary, buildSummary(pc))
}

// handleStatusPartial renders the unsaved badge and the save/discard buttons.
func (s *Server) handleStatusPartial(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	s.render(w, r, tmplStatus, buildStatus(pc))
}

// handleRowPartial renders one record row, used when inline editing is
// cancelled.
func (s *Server) handleRowPartial(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	s.renderRow(w, r, pc, tmplRow)
}

// handleRowEditPartial renders the inline editor for one record.
func (s *Server) handleRowEditPartial(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	s.renderRow(w, r, pc, tmplRowEdit)
}

func (s *Server) renderRow(w http.ResponseWriter, r *http.Request, pc *pageContext, name string) {
	id := r.PathValue("id")
	rec, ok := pc.Session.Reconciler.Get(id)
	if !ok {
		NotFoundError(pc.L.T("notice.notFound")).Write(w)
		return
	}
	s.render(w, r, name, buildRow(pc, rec, pc.Session.Reconciler.Pending()))
}
