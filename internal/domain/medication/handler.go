package medication

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dosetrack/dosetrack/internal/platform/auth"
	"github.com/dosetrack/dosetrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Assistants get read-only visibility into the linked patient's set.
	readGroup := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleAssistant))
	readGroup.GET("/medications", h.List)
	readGroup.GET("/medications/:id", h.Get)
	readGroup.GET("/medications/:id/schedule", h.Schedule)

	writeGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	writeGroup.POST("/medications", h.Create)
	writeGroup.PUT("/medications/:id", h.Update)
	writeGroup.DELETE("/medications/:id", h.Delete)
	writeGroup.POST("/medications/:id/suspend", h.Suspend)
	writeGroup.POST("/medications/:id/doses", h.ConfirmDose)
	writeGroup.POST("/medications/:id/consume", h.ConsumeOccasional)
	writeGroup.POST("/medications/:id/replenish", h.Replenish)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrMissingExpiry),
		errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// owned loads the medication and checks it belongs to the caller's resolved
// owner. Both patients and assistants go through this: the assistant's owner
// resolves to the linked patient.
func (h *Handler) owned(c echo.Context) (*Medication, *echo.HTTPError) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ownerID, ok := auth.OwnerIDFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unresolved account")
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err)
	}
	if m.OwnerID != ownerID {
		return nil, echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	return m, nil
}

func (h *Handler) Create(c echo.Context) error {
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ownerID, ok := auth.OwnerIDFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unresolved account")
	}
	m.OwnerID = ownerID
	if err := h.svc.Create(c.Request().Context(), &m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	ownerID, ok := auth.OwnerIDFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unresolved account")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), ownerID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	existing, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = existing.ID
	if err := h.svc.Update(c.Request().Context(), &m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	if err := h.svc.Delete(c.Request().Context(), m.ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Suspend(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	if err := h.svc.Suspend(c.Request().Context(), m.ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type confirmDoseRequest struct {
	Hour string `json:"hour"`
}

func (h *Handler) ConfirmDose(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	var req confirmDoseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.svc.ConfirmDose(c.Request().Context(), m.ID, req.Hour)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) ConsumeOccasional(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	updated, err := h.svc.ConsumeOccasionalUnit(c.Request().Context(), m.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"current_stock": updated.CurrentStock})
}

type replenishRequest struct {
	Quantity   int    `json:"quantity"`
	ExpiryDate string `json:"expiry_date"`
}

func (h *Handler) Replenish(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	var req replenishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.Replenish(c.Request().Context(), m.ID, req.Quantity, req.ExpiryDate)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{
		"current_stock": updated.CurrentStock,
		"initial_stock": updated.InitialStock,
	})
}

type slotView struct {
	Slot   int        `json:"slot"`
	Time   string     `json:"time"`
	Status SlotStatus `json:"status"`
}

// Schedule returns every slot of the day with its time and status at the
// requested instant (query param "at", RFC 3339, defaults to now).
func (h *Handler) Schedule(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}

	at := time.Now()
	if raw := c.QueryParam("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid at timestamp")
		}
		at = parsed
	}

	slots := make([]slotView, 0, m.DosesPerDay)
	for k := 1; k <= m.DosesPerDay; k++ {
		t, err := DoseSlotTime(m, k)
		if err != nil {
			return httpError(err)
		}
		status, err := SlotStatusAt(m, k, at)
		if err != nil {
			return httpError(err)
		}
		slots = append(slots, slotView{Slot: k, Time: t, Status: status})
	}

	next, pending := NextPendingSlot(m, at)
	resp := map[string]interface{}{"slots": slots}
	if pending {
		resp["next_pending_slot"] = next
	}
	return c.JSON(http.StatusOK, resp)
}
