package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDashboardHandler_ServesHTML(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	dashboardHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestDashboardHandler_UnknownPathNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	dashboardHandler(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestDashboardScheduleTypeOptions(t *testing.T) {
	for _, mType := range []string{"predictive", "preventive", "corrective", "condition-based"} {
		if !strings.Contains(dashboardHTML, `<option value="`+mType+`">`) {
			t.Fatalf("schedule dialog missing maintenance type %q", mType)
		}
	}
	if strings.Contains(dashboardHTML, `<option value="inspection">`) {
		t.Fatalf("schedule dialog offers a maintenance type outside the canonical set")
	}
}
