package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sunyuchen88/guomaojiance/api/middleware"
	"github.com/sunyuchen88/guomaojiance/api/responses"
	"github.com/sunyuchen88/guomaojiance/internal/submission"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
	"github.com/sunyuchen88/guomaojiance/pkg/logger"
)

type submitEngine interface {
	Submit(ctx context.Context, recordID uuid.UUID, operator string) (*submission.Result, error)
}

// RecordSubmit pushes one resulted record back to the partner.
func RecordSubmit(engine submitEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission engine unavailable"))
			return
		}

		id, err := recordIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		operator := middleware.UsernameFromContext(r.Context())
		result, err := engine.Submit(r.Context(), id, operator)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
