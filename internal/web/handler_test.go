package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joperezr/SmartHomePi/internal/controller"
	"github.com/joperezr/SmartHomePi/internal/smarthome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHome struct {
	err    error
	setID  int
	setOn  bool
	states []smarthome.LightBulbState
	env    smarthome.Environment
}

func (f *fakeHome) SetLightBulbState(_ context.Context, id int, on bool) error {
	f.setID, f.setOn = id, on
	return f.err
}

func (f *fakeHome) GetLightBulbStates(context.Context) ([]smarthome.LightBulbState, error) {
	return f.states, f.err
}

func (f *fakeHome) GetEnvironment(context.Context) (smarthome.Environment, error) {
	return f.env, f.err
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(CreateHandler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = serve(CreateHandler(), http.MethodGet, "/bulbs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutBulb(t *testing.T) {
	home := &fakeHome{}
	rec := serve(CreateControllerHandler(home), http.MethodPut, "/bulbs/2", `{"state":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, home.setID)
	assert.True(t, home.setOn)
	assert.JSONEq(t, `{"status":"Success","message":"The light bulb 2 was turned On"}`, rec.Body.String())
}

func TestPutBulbBadInput(t *testing.T) {
	h := CreateControllerHandler(&fakeHome{})

	for _, tc := range []struct{ target, body string }{
		{"/bulbs/two", `{"state":true}`},
		{"/bulbs/2", `{}`},
		{"/bulbs/2", `{"state":"yes"}`},
		{"/bulbs/2", `not json`},
	} {
		rec := serve(h, http.MethodPut, tc.target, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tc.target, tc.body)
	}
}

func TestGetBulbs(t *testing.T) {
	home := &fakeHome{states: []smarthome.LightBulbState{{ID: 1, On: true}, {ID: 3}}}
	rec := serve(CreateControllerHandler(home), http.MethodGet, "/bulbs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"state":true},{"id":3,"state":false}]`, rec.Body.String())
}

func TestGetEnvironment(t *testing.T) {
	home := &fakeHome{env: smarthome.Environment{TemperatureF: 72.5, PressurePa: 101325}}
	rec := serve(CreateControllerHandler(home), http.MethodGet, "/environment", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"temperatureInFahrenheit":72.5,"preassureInPascals":101325}`, rec.Body.String())
}

func TestErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code int
	}{
		{&controller.StatusError{Method: smarthome.MethodChangeLightBulbState, Status: 500}, http.StatusBadGateway},
		{fmt.Errorf("invoke: %w", controller.ErrTimeout), http.StatusGatewayTimeout},
		{controller.ErrClosed, http.StatusInternalServerError},
	} {
		h := CreateControllerHandler(&fakeHome{err: tc.err})

		rec := serve(h, http.MethodPut, "/bulbs/9", `{"state":false}`)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())

		rec = serve(h, http.MethodGet, "/environment", "")
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestStatusErrorCarriesDeviceStatus(t *testing.T) {
	h := CreateControllerHandler(&fakeHome{err: &controller.StatusError{Method: "X", Status: 501}})

	rec := serve(h, http.MethodGet, "/bulbs", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"message":"X returned status 501","deviceStatus":501}`, rec.Body.String())
}
