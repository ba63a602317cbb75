package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sunyuchen88/guomaojiance/api/responses"
	"github.com/sunyuchen88/guomaojiance/internal/records"
	"github.com/sunyuchen88/guomaojiance/internal/reports"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
)

// multipart bodies stay on disk past this threshold
const uploadMemoryLimit = 4 << 20

// ReportUpload stores a PDF report and links it to the record. The stored
// reference is what submission sends to the partner as check_result_url.
func ReportUpload(reportsSvc *reports.Service, recordsSvc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reportsSvc == nil || recordsSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		id, err := recordIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "report file is required"))
			return
		}
		defer file.Close()

		saved, err := reportsSvc.Save(r.Context(), header.Filename, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := recordsSvc.AttachReport(r.Context(), id, saved.URL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"report": saved,
			"record": recordResponseFromModel(record),
		})
	}
}

// ReportDownload streams a stored report back to the caller.
func ReportDownload(reportsSvc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reportsSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		relPath := chi.URLParam(r, "*")
		file, err := reportsSvc.Open(relPath)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		w.Header().Set("Content-Type", "application/pdf")
		if _, err := io.Copy(w, file); err != nil && logg != nil {
			logg.Warn(r.Context(), "streaming report failed: "+err.Error())
		}
	}
}
