package handler

import (
	"encoding/json"
	"net/http"

	"roomkeeper/internal/rooms/service"
	"roomkeeper/pkg/actor"
	apperrors "roomkeeper/pkg/errors"
	httputil "roomkeeper/pkg/http"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	service service.RoomService
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		log:     log,
	}
}

func (h *RoomHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *RoomHandler) Available(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}

	from, err := httputil.ExtractDate(r, "from")
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}
	to, err := httputil.ExtractDate(r, "to")
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}
	if from == nil || to == nil {
		h.writeError(w, "Available", apperrors.InvalidInput("Both 'from' and 'to' query parameters are required"))
		return
	}

	rooms, err := h.service.FindAvailable(r.Context(), a, *from, *to)
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "Available", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	room, err := h.service.GetByID(r.Context(), a, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	rooms, total, err := h.service.GetAll(r.Context(), a, r.URL.Query().Get("hotel_id"), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, rooms, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a, err := actor.FromRequest(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var room model.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
			Code:  apperrors.CodeInvalidInput,
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), a, &room); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, room); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rooms/available", h.Available)
	router.GET("/api/v1/rooms", h.GetAll)
	router.POST("/api/v1/rooms", h.Create)
	router.GET("/api/v1/rooms/id/:id", h.GetByID)
}
