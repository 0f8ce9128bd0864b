package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

// envelope is the body of every response. Result is present whenever the
// operation produced one, even when Error is set.
type envelope struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an operation error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrPartialDelete):
		return http.StatusInternalServerError
	case errors.Is(err, common.ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respond writes result and err. Callers pass an untyped nil when there is
// no result; a nil pointer would encode as "result": null.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, result any, err error) {
	body := envelope{Result: result}
	if err != nil {
		body.Error = err.Error()
		h.logger.Warn(r.Context(), "admin operation failed",
			"op", op, "request_id", RequestIDFrom(r.Context()), "subject", Subject(r.Context()), "error", err)
	}
	writeJSON(w, StatusFor(err), body)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", common.ErrInvalidArgument, name, v)
	}
	return b, nil
}

func reconcileOptions(r *http.Request) (services.ReconcileOptions, error) {
	var opts services.ReconcileOptions
	var err error
	if opts.RepairProfiles, err = parseBool(r, "repairProfiles"); err != nil {
		return opts, err
	}
	if opts.RepairData, err = parseBool(r, "repairData"); err != nil {
		return opts, err
	}
	return opts, nil
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	opts, err := reconcileOptions(r)
	if err != nil {
		h.respond(w, r, "reconcile", nil, err)
		return
	}
	report, err := h.ops.Reconcile(r.Context(), opts)
	if report == nil {
		h.respond(w, r, "reconcile", nil, err)
		return
	}
	h.respond(w, r, "reconcile", report, err)
}

func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	opts, err := reconcileOptions(r)
	if err != nil {
		h.respond(w, r, "audit", nil, err)
		return
	}
	report, err := h.ops.Audit(r.Context(), opts)
	if report == nil {
		h.respond(w, r, "audit", nil, err)
		return
	}
	h.respond(w, r, "audit", report, err)
}

type resetRequest struct {
	Baseline *int64 `json:"baseline"`
}

// baseline reads ?baseline=N or a JSON body {"baseline": N}; the query
// wins. Without either the configured default applies.
func (h *Handler) baseline(r *http.Request) (int64, error) {
	if v := r.URL.Query().Get("baseline"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: baseline=%q", common.ErrInvalidArgument, v)
		}
		return n, nil
	}

	var req resetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %w", common.ErrInvalidArgument, err)
	}
	if req.Baseline == nil {
		return h.defaultBaseline, nil
	}
	return *req.Baseline, nil
}

func (h *Handler) ResetEntitlements(w http.ResponseWriter, r *http.Request) {
	baseline, err := h.baseline(r)
	if err != nil {
		h.respond(w, r, "reset-entitlements", nil, err)
		return
	}
	report, err := h.ops.ResetAllEntitlements(r.Context(), baseline)
	if report == nil {
		h.respond(w, r, "reset-entitlements", nil, err)
		return
	}
	h.respond(w, r, "reset-entitlements", report, err)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.ops.DeleteUser(r.Context(), r.PathValue("uid"))
	if res == nil {
		h.respond(w, r, "delete-user", nil, err)
		return
	}
	h.respond(w, r, "delete-user", res, err)
}

func (h *Handler) Entitlement(w http.ResponseWriter, r *http.Request) {
	decision, err := h.ops.Check(r.Context(), r.PathValue("uid"))
	if err != nil {
		h.respond(w, r, "entitlement", nil, err)
		return
	}
	h.respond(w, r, "entitlement", decision, nil)
}

func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	res, err := h.ops.ConsumeUnit(r.Context(), r.PathValue("uid"))
	if err != nil {
		h.respond(w, r, "consume", nil, err)
		return
	}
	h.respond(w, r, "consume", res, nil)
}
