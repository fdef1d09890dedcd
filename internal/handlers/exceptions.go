package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/undantag/internal/app"
	"github.com/shrimpsizemoose/undantag/internal/models"
	"github.com/shrimpsizemoose/undantag/internal/paging"
	"github.com/shrimpsizemoose/undantag/internal/store"
)

const maxBodyBytes = 1 << 20

type ExceptionHandler struct {
	service *app.Service
}

func NewExceptionHandler(service *app.Service) *ExceptionHandler {
	return &ExceptionHandler{
		service: service,
	}
}

func (h *ExceptionHandler) Routes(mux *http.ServeMux) {
	h.handle(mux, http.MethodGet, "/api/v1/exceptions", h.HandleList)
	h.handle(mux, http.MethodGet, "/api/v1/exceptions/simple", h.HandleSimpleList)
	h.handle(mux, http.MethodGet, "/api/v1/exceptions/{id}", h.HandleGet)
	h.handle(mux, http.MethodGet, "/api/v1/exceptions/{id}/assignees", h.HandleAssignees)
	h.handle(mux, http.MethodPost, "/api/v1/exceptions/{id}/assign", h.HandleAssign)
	h.handle(mux, http.MethodPost, "/api/v1/exceptions/{id}/revoke", h.HandleRevoke)
}

func (h *ExceptionHandler) handle(mux *http.ServeMux, method, route string, fn http.HandlerFunc) {
	mux.HandleFunc(method+" "+route, instrument(route, h.guard(fn)))
}

func (h *ExceptionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.service.ListExceptions(
		r.Context(),
		parseFilter(q),
		store.ParseSort(q.Get("sort")),
		parseWindow(q, h.service.Config.ExceptionLimits()),
	)
	if err != nil {
		logf(r, "Failed to list exceptions: %v", err)
		writeError(w, r, http.StatusInternalServerError, codeInternal, "Failed to fetch exceptions")
		return
	}

	writeJSON(w, r, http.StatusOK, page)
}

func (h *ExceptionHandler) HandleSimpleList(w http.ResponseWriter, r *http.Request) {
	limit := paging.ClampLimit(r.URL.Query().Get("limit"), h.service.Config.SimpleLimits())

	items, err := h.service.ListSimpleExceptions(r.Context(), limit)
	if err != nil {
		logf(r, "Failed to list simple exceptions: %v", err)
		writeError(w, r, http.StatusInternalServerError, codeInternal, "Failed to fetch exceptions")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (h *ExceptionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	exc, err := h.service.GetException(r.Context(), id)
	if err != nil {
		logf(r, "Failed to get exception %d: %v", id, err)
		writeError(w, r, http.StatusInternalServerError, codeInternal, "Failed to fetch exception")
		return
	}
	if exc == nil {
		writeError(w, r, http.StatusNotFound, codeNotFound, "Exception not found")
		return
	}

	writeJSON(w, r, http.StatusOK, exc)
}

func (h *ExceptionHandler) HandleAssignees(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListAssignees(r.Context(), id, parseWindow(r.URL.Query(), h.service.Config.AssigneeLimits()))
	if err != nil {
		logf(r, "Failed to list assignees of %d: %v", id, err)
		writeError(w, r, http.StatusInternalServerError, codeInternal, "Failed to fetch assignees")
		return
	}

	writeJSON(w, r, http.StatusOK, page)
}

func (h *ExceptionHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, models.ValidationMessage(err))
		return
	}

	result, err := h.service.AssignEmployees(r.Context(), id, req, adminFrom(r.Context()))
	if err != nil {
		writeLifecycleError(w, r, "assign", id, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func (h *ExceptionHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.RevokeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, models.ValidationMessage(err))
		return
	}

	result, err := h.service.RevokeEmployees(r.Context(), id, req, adminFrom(r.Context()))
	if err != nil {
		writeLifecycleError(w, r, "revoke", id, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func writeLifecycleError(w http.ResponseWriter, r *http.Request, op string, id int64, err error) {
	switch {
	case errors.Is(err, app.ErrExceptionNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "Exception not found")
	case errors.Is(err, app.ErrNoEmpCodes):
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
	default:
		logf(r, "Failed to %s exception %d: %v", op, id, err)
		writeError(w, r, http.StatusInternalServerError, codeInternal, "Failed to "+op+" exception")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "Invalid exception id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parseWindow accepts a 1-based page or a 0-based pageIndex; page wins
// when both are present.
func parseWindow(q url.Values, limits paging.Limits) paging.Window {
	if q.Has("page") {
		return paging.Normalize(q.Get("page"), q.Get("pageSize"), limits)
	}
	return paging.NormalizeIndex(q.Get("pageIndex"), q.Get("pageSize"), limits)
}

// parseFilter ignores malformed values instead of failing the listing.
func parseFilter(q url.Values) models.ExceptionFilter {
	filter := models.ExceptionFilter{
		Search: strings.TrimSpace(q.Get("search")),
	}

	if risk, ok := models.ParseRiskLevel(strings.TrimSpace(q.Get("risk"))); ok {
		filter.RiskLevel = string(risk)
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(q.Get("categoryId")), 10, 64); err == nil {
		filter.CategoryID = &v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(q.Get("isActive"))); err == nil {
		filter.IsActive = &v
	}

	return filter
}
