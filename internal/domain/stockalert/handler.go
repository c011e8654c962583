package stockalert

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dosetrack/dosetrack/internal/platform/auth"
)

type Handler struct {
	eval *Evaluator
}

func NewHandler(eval *Evaluator) *Handler {
	return &Handler{eval: eval}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleAssistant))
	g.GET("/stock-alerts", h.Evaluate)
}

// Evaluate runs an on-demand tick for the caller's medication set and
// returns the alerts that newly fired. Repeating the call without a stock
// change returns an empty list: thresholds are edge-triggered.
func (h *Handler) Evaluate(c echo.Context) error {
	ownerID, ok := auth.OwnerIDFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unresolved account")
	}
	fired, err := h.eval.EvaluateOwner(c.Request().Context(), ownerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if fired == nil {
		fired = []Alert{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"alerts": fired})
}
