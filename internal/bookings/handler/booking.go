package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"roomkeeper/internal/bookings/service"
	"roomkeeper/pkg/actor"
	apperrors "roomkeeper/pkg/errors"
	httputil "roomkeeper/pkg/http"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, handler string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
			Code:  apperrors.CodeInvalidInput,
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}
	return true
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var req model.BookingRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}

	booking, err := h.service.Create(r.Context(), a, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	booking, err := h.service.GetByID(r.Context(), a, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	h.writeSuccess(w, "GetByID", booking)
}

func (h *BookingHandler) GetByCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "GetByCode", err)
		return
	}

	booking, err := h.service.GetByCode(r.Context(), a, ps.ByName("code"))
	if err != nil {
		h.writeError(w, "GetByCode", err)
		return
	}
	h.writeSuccess(w, "GetByCode", booking)
}

func (h *BookingHandler) ListForGuest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "ListForGuest", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListForGuest", err)
		return
	}

	bookings, total, err := h.service.ListForGuest(r.Context(), a, ps.ByName("guest_id"), limit, offset)
	if err != nil {
		h.writeError(w, "ListForGuest", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListForGuest", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	from, err := httputil.ExtractDate(r, "from")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	to, err := httputil.ExtractDate(r, "to")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	filter := model.BookingFilter{
		From:   from,
		To:     to,
		Status: model.BookingStatus(r.URL.Query().Get("status")),
	}

	bookings, total, err := h.service.Search(r.Context(), a, filter, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) AddServices(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "AddServices", err)
		return
	}

	var req model.ServicesRequest
	if !h.decode(w, r, "AddServices", &req) {
		return
	}

	booking, err := h.service.AddServices(r.Context(), a, ps.ByName("id"), req.ServiceIDs)
	if err != nil {
		h.writeError(w, "AddServices", err)
		return
	}
	h.writeSuccess(w, "AddServices", booking)
}

type lifecycleOp func(ctx context.Context, a actor.Actor, id string) (*model.Booking, error)

type referenceOp func(ctx context.Context, a actor.Actor, id string, ref string) (*model.Booking, error)

func (h *BookingHandler) lifecycle(w http.ResponseWriter, r *http.Request, ps httprouter.Params, handler string, op lifecycleOp) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	booking, err := op(r.Context(), a, ps.ByName("id"))
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	h.writeSuccess(w, handler, booking)
}

func (h *BookingHandler) reference(w http.ResponseWriter, r *http.Request, ps httprouter.Params, handler string, op referenceOp) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	var req model.ReferenceRequest
	if !h.decode(w, r, handler, &req) {
		return
	}

	booking, err := op(r.Context(), a, ps.ByName("id"), req.Reference)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	h.writeSuccess(w, handler, booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.lifecycle(w, r, ps, "Cancel", h.service.Cancel)
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.lifecycle(w, r, ps, "CheckIn", h.service.CheckIn)
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.lifecycle(w, r, ps, "CheckOut", h.service.CheckOut)
}

func (h *BookingHandler) AttachPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.reference(w, r, ps, "AttachPayment", h.service.AttachPayment)
}

func (h *BookingHandler) AttachInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.reference(w, r, ps, "AttachInvoice", h.service.AttachInvoice)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.Search)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/code/:code", h.GetByCode)
	router.GET("/api/v1/guests/:guest_id/bookings", h.ListForGuest)
	router.POST("/api/v1/bookings/id/:id/services", h.AddServices)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/check-in", h.CheckIn)
	router.POST("/api/v1/bookings/id/:id/check-out", h.CheckOut)
	router.PUT("/api/v1/bookings/id/:id/payment", h.AttachPayment)
	router.PUT("/api/v1/bookings/id/:id/invoice", h.AttachInvoice)
}
