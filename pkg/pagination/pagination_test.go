package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(target string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/", DefaultLimit, 0},
		{"explicit", "/?limit=50&offset=10", 50, 10},
		{"capped at max", "/?limit=500", MaxLimit, 0},
		{"zero limit falls back", "/?limit=0", DefaultLimit, 0},
		{"negative offset clamped", "/?offset=-5", DefaultLimit, 0},
		{"garbage ignored", "/?limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paramsFor(tt.target)
			if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					got.Limit, got.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]int{1, 2, 3}, 10, 3, 0)
	if !r.HasMore {
		t.Error("expected has_more with 7 items remaining")
	}

	r = NewResponse([]int{1}, 10, 5, 5)
	if r.HasMore {
		t.Error("expected has_more false on the last page")
	}
}
