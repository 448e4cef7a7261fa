package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"energydash/internal/core"
	"energydash/internal/export"
	"energydash/internal/importer"
	"energydash/internal/log"
	"energydash/internal/metrics"
)

// dateLayouts renders report dates per locale.
var dateLayouts = map[string]string{
	"en": "Jan 2, 2006",
	"pl": "02.01.2006",
}

// handleImport appends the rows of an uploaded CSV file to the working set
// as pending additions.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		s.importFailed(w, r, pc, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.importFailed(w, r, pc, err)
		return
	}
	defer file.Close()

	if !importer.AcceptsFilename(header.Filename) {
		metrics.ImportsTotal.WithLabelValues(metrics.StatusError).Inc()
		BadRequestError(pc.L.T("notice.importOnlyCsv")).Write(w)
		return
	}

	res, err := importer.ParseCSV(file, s.now())
	if err != nil {
		s.importFailed(w, r, pc, err)
		return
	}
	n := pc.Session.Reconciler.Import(res.Records)

	metrics.ImportsTotal.WithLabelValues(metrics.StatusOK).Inc()
	metrics.ImportedRecords.Add(float64(n))
	s.requestLogger(r).InfoContext(r.Context(), "CSV imported",
		log.FieldComponent, log.ComponentImport,
		log.FieldSessionID, pc.Session.ID,
		log.FieldOperation, log.OpImport,
		log.FieldRecordCount, n,
		"skipped_rows", res.Skipped,
		"filename", header.Filename)

	s.finish(w, r, pc, changed(pc).
		TriggerFormReset(formImport).
		TriggerSuccessNotification(pc.L.T("notice.imported", n)))
}

// importFailed reports a rejected upload. The working set is left as is.
func (s *Server) importFailed(w http.ResponseWriter, r *http.Request, pc *pageContext, err error) {
	metrics.ImportsTotal.WithLabelValues(metrics.StatusError).Inc()
	s.requestLogger(r).WarnContext(r.Context(), "CSV import rejected",
		log.FieldComponent, log.ComponentImport,
		log.FieldError, err,
		log.FieldSessionID, pc.Session.ID,
		log.FieldOperation, log.OpParse)

	reason := strings.TrimPrefix(err.Error(), core.ErrImport.Error()+": ")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		reason = "file larger than " + strconv.FormatInt(tooLarge.Limit>>10, 10) + " KiB"
	}
	BadRequestError(pc.L.T("notice.importFailed", reason)).Write(w)
}

// handleExport downloads the filtered working set, pending edits included.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, pc *pageContext) {
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		NotFoundError(pc.L.T("notice.invalid", r.PathValue("format"))).Write(w)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := export.Encode(&buf, format, visibleRecords(pc), s.exportMeta(pc, now)); err != nil {
		s.events.LogError(r.Context(), "Export failed", err, log.ComponentExport, log.OpExport,
			log.NewFields().WithSession(pc.Session.ID, pc.Session.Reconciler.PendingCount()))
		InternalServerError(pc.L.T("notice.commitFailed")).Write(w)
		return
	}
	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	s.requestLogger(r).DebugContext(r.Context(), "Records exported",
		log.FieldComponent, log.ComponentExport,
		log.FieldOperation, log.OpExport,
		log.FieldFormat, format,
		log.FieldSessionID, pc.Session.ID,
		"bytes", buf.Len())

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(now)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// exportMeta localizes the document text of an export.
func (s *Server) exportMeta(pc *pageContext, now time.Time) export.Meta {
	meta := export.DefaultMeta(now)
	meta.Title = pc.L.T("report.title")
	meta.GeneratedLabel = pc.L.T("report.generatedOn")
	meta.Columns = make([]string, len(core.Fields))
	for i, field := range core.Fields {
		meta.Columns[i] = pc.L.T("column." + field)
	}
	if layout, ok := dateLayouts[pc.Locale]; ok {
		meta.FormatDate = func(t time.Time) string { return t.Format(layout) }
	}
	return meta
}
