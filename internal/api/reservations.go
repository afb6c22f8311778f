package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookinggo/internal/models"
	"bookinggo/internal/storage"
)

func (h *Handler) listReservations(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, "list reservations", err)
		return
	}
	if limit, ok := positiveQuery(c, "_limit"); ok {
		c.Header("X-Total-Count", strconv.Itoa(len(list)))
		page, ok := positiveQuery(c, "_page")
		if !ok {
			page = 1
		}
		list = paginate(list, page, limit)
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	r, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, "get reservation", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) createReservation(c *gin.Context) {
	var req models.Reservation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.store.Create(c.Request.Context(), req)
	if err != nil {
		h.writeStoreError(c, "create reservation", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) replaceReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req models.Reservation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	updated, err := h.store.Update(c.Request.Context(), id, func(r *models.Reservation) error {
		*r = req
		return nil
	})
	if err != nil {
		h.writeStoreError(c, "replace reservation", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) patchReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	updated, err := h.store.Update(c.Request.Context(), id, func(r *models.Reservation) error {
		// Decoding onto the stored record overwrites only the supplied fields.
		if err := json.Unmarshal(body, r); err != nil {
			return errBadPatch
		}
		return nil
	})
	if err != nil {
		h.writeStoreError(c, "patch reservation", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeStoreError(c, "delete reservation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

var errBadPatch = errors.New("invalid request body")

func (h *Handler) writeStoreError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
	case errors.Is(err, models.ErrInvalidPartySize):
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrInvalidPartySize.Error()})
	case errors.Is(err, errBadPatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadPatch.Error()})
	default:
		h.log.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func reservationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return 0, false
	}
	return id, true
}

func positiveQuery(c *gin.Context, key string) (int, bool) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func paginate(list []models.Reservation, page, limit int) []models.Reservation {
	start := (page - 1) * limit
	if start >= len(list) {
		return []models.Reservation{}
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}
