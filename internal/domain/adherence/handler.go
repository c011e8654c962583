package adherence

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
	"github.com/dosetrack/dosetrack/internal/platform/auth"
)

// Handler serves read-only adherence reports over the caller's medication
// snapshot. Patients and assistants both have access.
type Handler struct {
	repo medication.Repository
}

func NewHandler(repo medication.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleAssistant))
	g.GET("/adherence", h.Overview)
	g.GET("/medications/:id/adherence", h.ForMedication)
	g.GET("/medications/:id/occasional-uses", h.OccasionalUses)
	g.GET("/medications/:id/week-histogram", h.Histogram)
}

func parsePeriod(c echo.Context) Period {
	switch Period(c.QueryParam("period")) {
	case PeriodMonthly:
		return PeriodMonthly
	case PeriodWeekly:
		return PeriodWeekly
	case PeriodDaily:
		return PeriodDaily
	default:
		return PeriodLifetime
	}
}

type medicationReport struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Name         string    `json:"name"`
	Report       Report    `json:"report"`
	TierInfo     TierInfo  `json:"tier"`
}

// Overview returns per-medication reports plus the average over the caller's
// active scheduled medications.
func (h *Handler) Overview(c echo.Context) error {
	ownerID, ok := auth.OwnerIDFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unresolved account")
	}
	period := parsePeriod(c)
	now := time.Now()

	meds, _, err := h.repo.ListByOwner(c.Request().Context(), ownerID, 1000, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	reports := make([]medicationReport, 0, len(meds))
	for _, m := range meds {
		if !m.Active || m.IsOccasional() {
			continue
		}
		r := Compute(m, period, now)
		reports = append(reports, medicationReport{
			MedicationID: m.ID,
			Name:         m.Name,
			Report:       r,
			TierInfo:     Tier(r.Percentage),
		})
	}

	avg := Average(meds, period, now)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"period":      period,
		"average":     avg,
		"tier":        Tier(avg),
		"medications": reports,
	})
}

func (h *Handler) owned(c echo.Context) (*medication.Medication, *echo.HTTPError) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ownerID, ok := auth.OwnerIDFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unresolved account")
	}
	m, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, medication.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if m.OwnerID != ownerID {
		return nil, echo.NewHTTPError(http.StatusNotFound, medication.ErrNotFound.Error())
	}
	return m, nil
}

func (h *Handler) ForMedication(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	period := parsePeriod(c)
	r := Compute(m, period, time.Now())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"period": period,
		"report": r,
		"tier":   Tier(r.Percentage),
	})
}

func (h *Handler) OccasionalUses(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	days, _ := strconv.Atoi(c.QueryParam("days"))
	count := CountOccasionalUses(m, days, time.Now())
	return c.JSON(http.StatusOK, map[string]int{"uses": count})
}

func (h *Handler) Histogram(c echo.Context) error {
	m, herr := h.owned(c)
	if herr != nil {
		return herr
	}
	return c.JSON(http.StatusOK, WeekHistogram(m, time.Now()))
}
