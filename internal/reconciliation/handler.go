package reconciliation

import (
	"errors"
	"net/http"

	"roomkeeper/internal/bookings/policy"
	"roomkeeper/pkg/actor"
	apperrors "roomkeeper/pkg/errors"
	httputil "roomkeeper/pkg/http"
	"roomkeeper/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	scheduler *Scheduler
	policy    policy.Authorizer
	log       *logger.Logger
}

func NewHandler(scheduler *Scheduler, policy policy.Authorizer, log *logger.Logger) *Handler {
	return &Handler{
		scheduler: scheduler,
		policy:    policy,
		log:       log,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *Handler) authorize(r *http.Request, act string) error {
	a, err := actor.FromRequest(r)
	if err != nil {
		return err
	}
	return h.policy.Authorize(a, policy.ObjReconciliation, act)
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.authorize(r, policy.ActRun); err != nil {
		h.writeError(w, "Run", err)
		return
	}

	report, err := h.scheduler.RunOnce(r.Context())
	if err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			h.writeError(w, "Run", apperrors.Conflict("A reconciliation sweep is already running"))
			return
		}
		h.writeError(w, "Run", apperrors.Internal("Reconciliation sweep failed", err))
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Run", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) Last(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.authorize(r, policy.ActRead); err != nil {
		h.writeError(w, "Last", err)
		return
	}

	report, ok := h.scheduler.LastReport()
	if !ok {
		h.writeError(w, "Last", apperrors.NotFound("Reconciliation report"))
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Last", "operation", "WriteSuccess", "error", err)
	}
}

const runPath = "/api/v1/reconciliation/run"

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST(runPath, h.Run)
	router.GET("/api/v1/reconciliation/last", h.Last)
}

// LongRunningPaths exempts manual sweeps from the request timeout; a sweep
// over a large backlog can take longer than an ordinary request.
func (h *Handler) LongRunningPaths() []string {
	return []string{runPath}
}
