package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mcoot/tablesync/internal/api/apierr"
	"github.com/mcoot/tablesync/internal/api/response"
	"github.com/mcoot/tablesync/internal/dependencies/mocks"
	"github.com/mcoot/tablesync/internal/factory"
	"github.com/mcoot/tablesync/internal/model"
	storagemocks "github.com/mcoot/tablesync/internal/storage/mocks"
)

// testServer wraps a test app's HTTP handler
type testServer struct {
	app *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	go app.Hub.Run()
	t.Cleanup(app.Hub.Close)

	return &testServer{app: app}
}

func (ts *testServer) request(method, path string, body any, hostPassword string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if hostPassword != "" {
		req.Header.Set("X-Host-Password", hostPassword)
	}

	rr := httptest.NewRecorder()
	ts.app.Handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createPlayer(t *testing.T, name string) model.PlayerID {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/players", playerBody(name), "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var resp response.CreatePlayer
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.PlayerID
}

func playerBody(name string) map[string]string {
	return map[string]string{
		"name":                 name,
		"power":                "Flight",
		"power_description":    "Can fly short distances",
		"sex":                  "F",
		"physical_description": "Tall, silver hair",
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.ErrorResponse {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","storage":"ok"}`, rr.Body.String())
}

func TestHealthCheck_StoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockStore(ctrl)
	store.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

	app := factory.NewTestAppWithStore(store, mocks.NewMockClock(time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"unavailable","storage":"unreachable"}`, rr.Body.String())
}

func TestCreatePlayer(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/players", playerBody("Aria"), "")

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"success":true,"player_id":1}`, rr.Body.String())
}

func TestCreatePlayer_MissingField(t *testing.T) {
	ts := newTestServer(t)

	body := playerBody("Aria")
	delete(body, "power")
	rr := ts.request(http.MethodPost, "/api/players", body, "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeValidation, decodeError(t, rr).Code)
}

func TestCreatePlayer_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/players", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	ts.app.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodGet, "/api/players/1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Player
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, id, resp.Player.ID)
	assert.Equal(t, "Aria", resp.Player.PlayerName)
	assert.Equal(t, model.DefaultHP, resp.Player.CurrHP)
	assert.Equal(t, model.DefaultHP, resp.Player.MaxHP)
	assert.Equal(t, model.DefaultStamina, resp.Player.CurrStam)
	assert.Equal(t, model.DefaultStamina, resp.Player.MaxStam)
	assert.Equal(t, 0, resp.Player.LastDiceRoll)
}

func TestGetPlayer_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/players/42", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, decodeError(t, rr).Code)
}

func TestListPlayers_RequiresHost(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodGet, "/api/players", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)

	rr = ts.request(http.MethodGet, "/api/players", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListPlayers_UnauthorizedTouchesNoStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No expectations: any store call fails the test
	store := storagemocks.NewMockStore(ctrl)
	app := factory.NewTestAppWithStore(store, mocks.NewMockClock(time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListPlayers(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")
	ts.createPlayer(t, "Bram")

	rr := ts.request(http.MethodGet, "/api/players", nil, factory.TestHostPassword)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Players
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Players, 2)
	assert.Equal(t, "Aria", resp.Players[0].PlayerName)
	assert.Equal(t, "Bram", resp.Players[1].PlayerName)
}

func TestListPlayers_Empty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/players", nil, factory.TestHostPassword)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"players":[]}`, rr.Body.String())
}

func TestRollDice(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodPost, "/api/players/1/roll", map[string]int{"roll": 15}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Roll
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 15, resp.Roll)
	assert.Equal(t, 15, resp.Player.LastDiceRoll)
}

func TestRollDice_EmptyBodyRollsServerSide(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")
	ts.app.MockRandom.QueueRolls(19)

	rr := ts.request(http.MethodPost, "/api/players/1/roll", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Roll
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 19, resp.Roll)
	assert.Equal(t, []int{20}, ts.app.MockRandom.Sides)
}

func TestRollDice_UnknownPlayer(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/players/9/roll", map[string]int{"roll": 3}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateStat(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodPost, "/api/players/1/stats", map[string]any{"type": "stam", "value": -3}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Player
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, -3, resp.Player.CurrStam)
}

func TestUpdateStat_InvalidType(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodPost, "/api/players/1/stats", map[string]any{"type": "mana", "value": 3}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidStat, decodeError(t, rr).Code)
}

func TestUpdateStat_MissingValue(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodPost, "/api/players/1/stats", map[string]any{"type": "hp"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidFieldValue, decodeError(t, rr).Code)

	p, err := ts.app.Store.GetPlayer(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 20, p.CurrHP)
}

func TestUpdateField(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"string field", map[string]any{"field": "power", "value": "Invisibility"}, http.StatusOK, ""},
		{"int field", map[string]any{"field": "max_hp", "value": 30}, http.StatusOK, ""},
		{"not allowed", map[string]any{"field": "id", "value": 7}, http.StatusBadRequest, apierr.CodeFieldNotAllowed},
		{"wrong type", map[string]any{"field": "max_hp", "value": "lots"}, http.StatusBadRequest, apierr.CodeInvalidFieldValue},
		{"empty string", map[string]any{"field": "sex", "value": ""}, http.StatusBadRequest, apierr.CodeInvalidFieldValue},
		{"missing field", map[string]any{"value": 1}, http.StatusBadRequest, apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPatch, "/api/players/1", tt.body, "")
			assert.Equal(t, tt.status, rr.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rr).Code)
			}
		})
	}

	p, err := ts.app.Store.GetPlayer(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Invisibility", p.Power)
	assert.Equal(t, 30, p.MaxHP)
	assert.Equal(t, "F", p.Sex)
}

func TestMessages(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodPost, "/api/players/1/messages", map[string]string{"content": "I open the door", "mode": "OOC"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var sent response.Message
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sent))
	assert.Equal(t, model.ModeRP, sent.Message.Mode)
	assert.Equal(t, model.SenderPlayer, sent.Message.Sender)

	rr = ts.request(http.MethodPost, "/api/host/players/1/messages", map[string]string{"content": "It creaks", "mode": "OOC"}, factory.TestHostPassword)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodGet, "/api/players/1/messages", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list response.Messages
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Messages, 2)
	assert.Equal(t, "I open the door", list.Messages[0].Content)
	assert.Equal(t, "It creaks", list.Messages[1].Content)
	assert.Equal(t, model.ModeOOC, list.Messages[1].Mode)
}

func TestHostMessage_RequiresHost(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodPost, "/api/host/players/1/messages", map[string]string{"content": "boo"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	messages, err := ts.app.Store.ListMessagesForPlayer(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHostMessage_InvalidMode(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodPost, "/api/host/players/1/messages", map[string]string{"content": "boo", "mode": "WHISPER"}, factory.TestHostPassword)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidMode, decodeError(t, rr).Code)
}

func TestMessages_UnknownPlayer(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/players/3/messages", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodPost, "/api/players/3/messages", map[string]string{"content": "hello?"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHostLogin(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/host/login", map[string]string{"password": factory.TestHostPassword}, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/host/login", map[string]string{"password": "dragon-hoard "}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createPlayer(t, "Aria")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `tablesync_events_total{event="create_player"} 1`)
	assert.Contains(t, rr.Body.String(), `route="/api/players"`)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/dragons", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
