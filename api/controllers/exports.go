package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/api/responses"
	"github.com/sunyuchen88/guomaojiance/api/validators"
	"github.com/sunyuchen88/guomaojiance/internal/exports"
	"github.com/sunyuchen88/guomaojiance/internal/records"
	"github.com/sunyuchen88/guomaojiance/pkg/enums"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportGenerator interface {
	Generate(ctx context.Context, filter records.ExportFilter) (*exports.Export, error)
}

// RecordExport streams the filtered record set as an xlsx workbook.
// Explicit ids take precedence over the other filters.
func RecordExport(svc exportGenerator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		filter := records.ExportFilter{
			Company:     validators.SanitizeString(r.URL.Query().Get("company"), 255),
			UnionNumber: validators.SanitizeString(r.URL.Query().Get("union_number"), 64),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("ids")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				id, err := uuid.Parse(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id in ids"))
					return
				}
				filter.IDs = append(filter.IDs, id)
			}
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRecordStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filter.Status = string(status)
		}

		from, err := validators.ParseQueryTime(r, "checked_from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "checked_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CheckedFrom = from
		filter.CheckedTo = to

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Limit = limit

		export, err := svc.Generate(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
		if _, err := w.Write(export.Content); err != nil && logg != nil {
			logg.Warn(r.Context(), "streaming export failed: "+err.Error())
		}
	}
}
