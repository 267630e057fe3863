package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"country-color-map/backend/models"
	"country-color-map/backend/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testBoundaries = `{"type":"FeatureCollection","features":[
  {"type":"Feature","id":"FRA","properties":{"name":"France"},"geometry":null},
  {"type":"Feature","id":"DEU","properties":{"name":"Germany"},"geometry":null}
]}`

type testApp struct {
	app   *fiber.App
	h     *Handler
	store *services.ColorStore
}

func newTestApp(t *testing.T, secret string) *testApp {
	t.Helper()
	dir := t.TempDir()

	store, err := services.NewColorStore(filepath.Join(dir, "country_colors.json"))
	require.NoError(t, err)

	sessions, err := services.NewSessionManager("test-key", time.Hour)
	require.NoError(t, err)

	world := filepath.Join(dir, "world.json")
	require.NoError(t, os.WriteFile(world, []byte(testBoundaries), 0644))

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "history.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	history, err := services.NewHistoryService(db)
	require.NoError(t, err)
	store.AddObserver(history)

	geoip, err := services.NewGeoIPService("")
	require.NoError(t, err)

	h := NewHandler(store, services.NewSecretGate(secret), sessions, services.NewBoundaryService(world))
	h.History = history
	h.GeoIP = geoip

	app := fiber.New()
	h.Register(app)
	return &testApp{app: app, h: h, store: store}
}

func (a *testApp) do(t *testing.T, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (a *testApp) login(t *testing.T, password string) string {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/api/login", "", `{"password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, code, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (a *testApp) setColor(t *testing.T, token, country, color string) {
	t.Helper()
	code, body := a.do(t, http.MethodPut, "/api/colors/"+country, token, `{"color":"`+color+`"}`)
	require.Equal(t, http.StatusOK, code, body)
}

func TestLogin(t *testing.T) {
	a := newTestApp(t, "s3cret")

	code, body := a.do(t, http.MethodPost, "/api/login", "", `{"password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Incorrect password", body["error"])

	token := a.login(t, "s3cret")
	code, body = a.do(t, http.MethodGet, "/api/session", token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["is_admin"])

	code, body = a.do(t, http.MethodGet, "/api/session", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["is_admin"])
}

func TestLogin_DisabledWithoutSecret(t *testing.T) {
	a := newTestApp(t, "")
	for _, pw := range []string{"", "admin"} {
		code, _ := a.do(t, http.MethodPost, "/api/login", "", `{"password":"`+pw+`"}`)
		assert.Equal(t, http.StatusUnauthorized, code)
	}
}

func TestSetAndRemoveColor(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")

	code, body := a.do(t, http.MethodPut, "/api/colors/France", token, `{"color":"Green"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.NotContains(t, body, "warning")

	code, body = a.do(t, http.MethodGet, "/api/colors", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"color": "#00FF00", "color_name": "Green"}, body["France"])

	code, _ = a.do(t, http.MethodDelete, "/api/colors/France", token, "")
	assert.Equal(t, http.StatusOK, code)
	code, body = a.do(t, http.MethodGet, "/api/colors", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, "France")

	code, _ = a.do(t, http.MethodDelete, "/api/colors/France", token, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSetColor_EscapedCountry(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")

	code, body := a.do(t, http.MethodPut, "/api/colors/United%20Kingdom", token, `{"color":"Red"}`)
	require.Equal(t, http.StatusOK, code, body)
	_, ok := a.store.Get("United Kingdom")
	assert.True(t, ok)
}

func TestSetColor_Validation(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")

	code, _ := a.do(t, http.MethodPut, "/api/colors/Atlantis", token, `{"color":"Red"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPut, "/api/colors/France", token, `{"color":"Purple"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPut, "/api/colors/France", token, `{"color":"green"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPut, "/api/colors/France", token, `{"color":`)
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Empty(t, a.store.GetAll())
}

func TestSetColor_SeveralCountriesInARow(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")

	a.setColor(t, token, "Vietnam", "Red")
	a.setColor(t, token, "Austria", "Yellow")
	a.setColor(t, token, "Bosnia%20and%20Herzegovina", "Green")
	a.setColor(t, token, "Malta", "Red")

	code, _ := a.do(t, http.MethodDelete, "/api/colors/Malta", token, "")
	require.Equal(t, http.StatusOK, code)
	a.setColor(t, token, "Oman", "Green")

	want := models.ColorMapping{
		"Vietnam":                models.NewEntry(models.Red),
		"Austria":                models.NewEntry(models.Yellow),
		"Bosnia and Herzegovina": models.NewEntry(models.Green),
		"Oman":                   models.NewEntry(models.Green),
	}
	assert.Equal(t, want, a.store.GetAll())

	reopened, err := services.NewColorStore(a.store.Path())
	require.NoError(t, err)
	assert.Equal(t, want, reopened.GetAll())
}

func TestMutations_VisitorRejectedUniformly(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")
	code, _ := a.do(t, http.MethodPut, "/api/colors/Spain", token, `{"color":"Yellow"}`)
	require.Equal(t, http.StatusOK, code)

	requests := []struct{ method, path, body string }{
		{http.MethodPut, "/api/colors/Spain", `{"color":"Red"}`},
		{http.MethodPut, "/api/colors/Atlantis", `{"color":"Red"}`},
		{http.MethodPut, "/api/colors/Spain", `{"color":`},
		{http.MethodPut, "/api/colors/Spain", `{"color":"Purple"}`},
		{http.MethodDelete, "/api/colors/Spain", ""},
		{http.MethodDelete, "/api/colors/France", ""},
		{http.MethodDelete, "/api/colors", ""},
		{http.MethodGet, "/api/history", ""},
		{http.MethodGet, "/api/backup/export", ""},
		{http.MethodPost, "/api/backup/import", `{}`},
		{http.MethodPost, "/api/webhook/test", ""},
	}
	for _, bad := range []string{"", "garbage-token"} {
		for _, r := range requests {
			code, body := a.do(t, r.method, r.path, bad, r.body)
			assert.Equal(t, http.StatusUnauthorized, code, "%s %s", r.method, r.path)
			assert.Equal(t, "Admin login required", body["error"], "%s %s", r.method, r.path)
		}
	}

	assert.Equal(t, models.ColorMapping{"Spain": models.NewEntry(models.Yellow)}, a.store.GetAll())
}

func TestLogout_RevokesToken(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")

	code, body := a.do(t, http.MethodPost, "/api/logout", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["is_admin"])

	code, _ = a.do(t, http.MethodPut, "/api/colors/France", token, `{"color":"Green"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = a.do(t, http.MethodGet, "/api/session", token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["is_admin"])
}

func TestClearAll(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")
	a.setColor(t, token, "Japan", "Red")

	for i := 0; i < 2; i++ {
		code, _ := a.do(t, http.MethodDelete, "/api/colors", token, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, a.store.GetAll())
	}
}

func TestLegendAndPicker(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")
	a.setColor(t, token, "Vietnam", "Red")
	a.setColor(t, token, "Austria", "Yellow")

	req := httptest.NewRequest(http.MethodGet, "/api/legend", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var legend []models.LegendItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&legend))
	require.Len(t, legend, 2)
	assert.Equal(t, "Austria", legend[0].Country)
	assert.Equal(t, models.Red, legend[1].ColorName)

	req = httptest.NewRequest(http.MethodGet, "/api/countries", nil)
	resp2, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp2.Body.Close()
	var countries []string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&countries))
	assert.Equal(t, models.SortedCountries(), countries)
	assert.True(t, sort.StringsAreSorted(countries))
}

func TestGetMap(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")
	a.setColor(t, token, "France", "Green")

	code, body := a.do(t, http.MethodGet, "/api/map", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, "warning")

	fc := body["geojson"].(map[string]interface{})
	features := fc["features"].([]interface{})
	require.Len(t, features, 2)

	france := features[0].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"fillColor": "#00FF00", "color": "black", "weight": float64(2), "fillOpacity": 0.7,
	}, france["style"])

	germany := features[1].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, "#FFFFFF", germany["style"].(map[string]interface{})["fillColor"])
}

func TestGetMap_BoundariesUnavailable(t *testing.T) {
	a := newTestApp(t, "s3cret")
	a.h.Boundaries = services.NewBoundaryService(filepath.Join(t.TempDir(), "missing.json"))

	code, body := a.do(t, http.MethodGet, "/api/map", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "warning")
	fc := body["geojson"].(map[string]interface{})
	assert.Empty(t, fc["features"])
}

func TestHistoryAndBackup(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")
	a.setColor(t, token, "Malta", "Green")
	a.setColor(t, token, "Oman", "Red")

	code, body := a.do(t, http.MethodGet, "/api/history?limit=1", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	latest := body["changes"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Oman", latest["country"])

	code, body = a.do(t, http.MethodGet, "/api/backup/export", token, "")
	require.Equal(t, http.StatusOK, code)
	exported, err := json.Marshal(body)
	require.NoError(t, err)

	code, _ = a.do(t, http.MethodDelete, "/api/colors", token, "")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, a.store.GetAll())

	code, body = a.do(t, http.MethodPost, "/api/backup/import", token, string(exported))
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, models.ColorMapping{
		"Malta": models.NewEntry(models.Green),
		"Oman":  models.NewEntry(models.Red),
	}, a.store.GetAll())

	code, _ = a.do(t, http.MethodPost, "/api/backup/import", token, `{"Narnia":{"color":"#FF0000","color_name":"Red"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Len(t, a.store.GetAll(), 2)
}

func TestWhereAmI_Disabled(t *testing.T) {
	a := newTestApp(t, "s3cret")
	code, _ := a.do(t, http.MethodGet, "/api/whereami", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestWebhookTest(t *testing.T) {
	a := newTestApp(t, "s3cret")
	token := a.login(t, "s3cret")

	code, body := a.do(t, http.MethodPost, "/api/webhook/test", token, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Discord webhook URL not configured", body["error"])

	var (
		mu     sync.Mutex
		titles []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p services.DiscordWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil && len(p.Embeds) > 0 {
			mu.Lock()
			titles = append(titles, p.Embeds[0].Title)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a.h.Webhook = services.NewWebhookService()
	a.h.Webhook.SetWebhookURL(srv.URL)

	code, body = a.do(t, http.MethodPost, "/api/webhook/test", token, "")
	require.Equal(t, http.StatusOK, code, body)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Webhook Test"}, titles)
}
