package mapview

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/pin"

	"github.com/gofiber/fiber/v2"
)

func passthrough(c *fiber.Ctx) error { return c.Next() }

func newApp(ctrl *Controller) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/map"), ctrl, passthrough)
	return app
}

func TestMapSessionFlow(t *testing.T) {
	near := pin.Pin{ID: "near", Title: "NYC", Lat: 40.7128, Lng: -74.0060}
	ctrl := NewController(&fakePins{all: []pin.Pin{near}}, 200)
	app := newApp(ctrl)

	// create session
	req := httptest.NewRequest(http.MethodPost, "/map/sessions", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: %v", err)
	}
	var created struct {
		ID    string `json:"id"`
		State State  `json:"state"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&created)
	if created.ID == "" || created.State != StateUninitialized {
		t.Fatalf("unexpected session: %+v", created)
	}

	// first render shows the dialog: no grant result in the body yet
	req = httptest.NewRequest(http.MethodPost, "/map/sessions/"+created.ID+"/permissions", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("prompt status: %d", resp.StatusCode)
	}
	var prompted struct {
		State State `json:"state"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&prompted)
	if prompted.State != StatePermissionPending {
		t.Fatalf("expected pending after prompt, got %s", prompted.State)
	}

	// grant permissions
	body, _ := json.Marshal(map[string]bool{"granted": true})
	req = httptest.NewRequest(http.MethodPost, "/map/sessions/"+created.ID+"/permissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("permissions status: %d", resp.StatusCode)
	}

	// resolve with no fix: fallback location, one visible marker
	req = httptest.NewRequest(http.MethodPost, "/map/sessions/"+created.ID+"/location", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("location status: %d", resp.StatusCode)
	}
	var sync struct {
		State   State     `json:"state"`
		Markers []pin.Pin `json:"markers"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&sync)
	if sync.State != StateSynced || len(sync.Markers) != 1 {
		t.Fatalf("unexpected sync result: %+v", sync)
	}

	// markers endpoint reflects the rendered set
	req = httptest.NewRequest(http.MethodGet, "/map/sessions/"+created.ID+"/markers", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("markers status: %d", resp.StatusCode)
	}

	// zoom
	body, _ = json.Marshal(map[string]string{"direction": "in"})
	req = httptest.NewRequest(http.MethodPost, "/map/sessions/"+created.ID+"/zoom", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("zoom status: %d", resp.StatusCode)
	}
}

func TestMapSessionBlocked(t *testing.T) {
	ctrl := NewController(&fakePins{}, 200)
	app := newApp(ctrl)

	s := ctrl.CreateSession()
	s.CheckPermissions(false)

	req := httptest.NewRequest(http.MethodPost, "/map/sessions/"+s.ID+"/location", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden for blocked session, got %d", resp.StatusCode)
	}
}

func TestMapSessionNotFound(t *testing.T) {
	ctrl := NewController(&fakePins{}, 200)
	app := newApp(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/map/sessions/ghost/markers", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestMapLongPressIntent(t *testing.T) {
	ctrl := NewController(&fakePins{}, 200)
	app := newApp(ctrl)

	s := ctrl.CreateSession()

	body := []byte(`{"lat":40.75,"lng":-73.99}`)
	req := httptest.NewRequest(http.MethodPost, "/map/sessions/"+s.ID+"/intent", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("intent status: %d", resp.StatusCode)
	}
	var intent CreateIntent
	_ = json.NewDecoder(resp.Body).Decode(&intent)
	if intent.Lat != 40.75 || intent.Lng != -73.99 {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}
