package httpapi

import "net/http"

func (h *Handler) ListReferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListReferences")
	defer span.End()

	kind := r.PathValue("kind")
	items, err := h.referenceService.List(ctx, kind)
	if err != nil {
		h.logger.WarnContext(ctx, "list references failed", "kind", kind, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCountries")
	defer span.End()

	countries, err := h.referenceService.Countries(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list countries failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeSuccess(ctx, w, http.StatusOK, countries)
}
