package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bptracker/internal/auth"
	"bptracker/internal/cache"
	"bptracker/internal/config"
	"bptracker/internal/dbtest"
	"bptracker/internal/handler"
	"bptracker/internal/logging"
	"bptracker/internal/repository"
	"bptracker/internal/service"
)

const testSecret = "router-test-secret"

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gormDB := dbtest.New(t)
	log := logging.NewWithOutput("error", io.Discard)
	cfg := &config.Config{CORSOrigins: []string{"*"}}

	userRepo := repository.NewUserRepository(gormDB)
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	hasher := auth.NewPBKDF2Hasher(1000)

	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cacheClient.Close() })

	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userRepo, hasher, jwtService, log)
	readingService := service.NewReadingService(repository.NewReadingRepository(gormDB), cacheClient)

	e := echo.New()
	Register(e, cfg, log, auth.NewGuard(jwtService, userService), Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Reading: handler.NewReadingHandler(readingService),
	})
	return &testServer{t: t, e: e}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(email, password string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/register", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var body handler.TokenResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(s.t, body.Token)
	return body.Token
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	msg, _ := body["message"].(string)
	return msg
}

func TestScenario_TwoUsersStayIsolated(t *testing.T) {
	s := newTestServer(t)

	s.register("a@x.com", "pw1")
	tokenA := s.login("a@x.com", "pw1")

	rec := s.do(http.MethodPost, "/readings", tokenA, `{"systolic":120,"diastolic":80,"date":"2025-07-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created handler.CreatedReadingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "New reading added!", created.Message)
	readingID := created.Reading.ID
	require.NotZero(t, readingID)

	rec = s.do(http.MethodGet, "/readings", tokenA, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []handler.ReadingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, handler.ReadingResponse{ID: readingID, Systolic: 120, Diastolic: 80, Date: "2025-07-10T00:00:00"}, list[0])

	rec = s.do(http.MethodGet, "/readings", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is missing!", message(t, rec))

	s.register("b@x.com", "pw2")
	tokenB := s.login("b@x.com", "pw2")

	rec = s.do(http.MethodGet, "/readings", tokenB, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	foreign := s.do(http.MethodDelete, "/readings/"+itoa(readingID), tokenB, "")
	absent := s.do(http.MethodDelete, "/readings/999999", tokenB, "")
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, "No reading found or unauthorized!", message(t, foreign))
	assert.Equal(t, absent.Code, foreign.Code)
	assert.Equal(t, absent.Body.String(), foreign.Body.String())

	rec = s.do(http.MethodGet, "/readings", tokenA, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1, "foreign delete must leave the reading in place")

	rec = s.do(http.MethodDelete, "/readings/"+itoa(readingID), tokenA, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reading has been deleted!", message(t, rec))

	rec = s.do(http.MethodDelete, "/readings/"+itoa(readingID), tokenA, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/register", "", `{"email":"dup@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "New user created!", message(t, rec))

	rec = s.do(http.MethodPost, "/register", "", `{"email":"dup@x.com","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User with this email already exists.", message(t, rec))

	for _, body := range []string{`{"email":"x@x.com"}`, `{"password":"pw"}`, `{}`, `not json`} {
		rec = s.do(http.MethodPost, "/register", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Could not create user. Missing data.", message(t, rec), body)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw1")

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"wrong password", `{"email":"a@x.com","password":"nope"}`, http.StatusUnauthorized, "Could not verify. Wrong password!"},
		{"unknown user", `{"email":"z@x.com","password":"pw1"}`, http.StatusUnauthorized, "User not found!"},
		{"email differs in case", `{"email":"A@X.COM","password":"pw1"}`, http.StatusUnauthorized, "User not found!"},
		{"missing password", `{"email":"a@x.com"}`, http.StatusUnauthorized, "Could not verify"},
		{"empty body", `{}`, http.StatusUnauthorized, "Could not verify"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/login", "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, message(t, rec))
		})
	}
}

func TestGuard_RejectsBadTokens(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw1")
	valid := s.login("a@x.com", "pw1")

	expired, err := auth.NewJWTService(testSecret, time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(1)
	require.NoError(t, err)

	forged, err := auth.NewJWTService("some-other-secret", time.Hour).Issue(1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"missing", "", "Token is missing!"},
		{"expired", expired, "Token has expired!"},
		{"wrong secret", forged, "Token is invalid!"},
		{"garbage", "abc.def.ghi", "Token is invalid!"},
		{"truncated", valid[:len(valid)-4], "Token is invalid!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/readings", "/readings/summary", "/me"} {
				rec := s.do(http.MethodGet, path, tt.token, "")
				assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
				assert.Equal(t, tt.message, message(t, rec), path)
			}
		})
	}

	rec := s.do(http.MethodGet, "/me", valid, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"email":"a@x.com"}`, rec.Body.String())
}

func TestCreateReading_Validation(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw1")
	token := s.login("a@x.com", "pw1")

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing date", `{"systolic":120,"diastolic":80}`, http.StatusBadRequest, "Missing data for reading."},
		{"empty object", `{}`, http.StatusBadRequest, "Missing data for reading."},
		{"not json", `oops`, http.StatusBadRequest, "Missing data for reading."},
		{"word for number", `{"systolic":"high","diastolic":80,"date":"2025-07-10"}`, http.StatusBadRequest, "Invalid data format."},
		{"bad date", `{"systolic":120,"diastolic":80,"date":"07/10/2025"}`, http.StatusBadRequest, "Invalid data format."},
		{"date with time", `{"systolic":120,"diastolic":80,"date":"2025-07-10T09:30:00"}`, http.StatusBadRequest, "Invalid data format."},
		{"null systolic", `{"systolic":null,"diastolic":80,"date":"2025-07-10"}`, http.StatusBadRequest, "Invalid data format."},
		{"null date", `{"systolic":120,"diastolic":80,"date":null}`, http.StatusBadRequest, "Invalid data format."},
		{"numeric strings", `{"systolic":"135","diastolic":"85","date":"2025-07-11"}`, http.StatusCreated, "New reading added!"},
		{"unpadded date", `{"systolic":128,"diastolic":84,"date":"2025-7-2"}`, http.StatusCreated, "New reading added!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/readings", token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.message, message(t, rec))
		})
	}

	rec := s.do(http.MethodGet, "/readings", token, "")
	var list []handler.ReadingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2, "only the valid readings are stored")
	assert.Equal(t, "2025-07-11T00:00:00", list[0].Date)
	assert.Equal(t, "2025-07-02T00:00:00", list[1].Date)
}

func TestDeleteReading_NonNumericID(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw1")
	token := s.login("a@x.com", "pw1")

	rec := s.do(http.MethodDelete, "/readings/abc", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No reading found or unauthorized!", message(t, rec))
}

func TestListReadings_NewestFirst(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw1")
	token := s.login("a@x.com", "pw1")

	for _, date := range []string{"2025-07-01", "2025-07-20", "2025-07-05"} {
		rec := s.do(http.MethodPost, "/readings", token, `{"systolic":120,"diastolic":80,"date":"`+date+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(http.MethodGet, "/readings", token, "")
	var list []handler.ReadingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "2025-07-20T00:00:00", list[0].Date)
	assert.Equal(t, "2025-07-05T00:00:00", list[1].Date)
	assert.Equal(t, "2025-07-01T00:00:00", list[2].Date)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw1")
	token := s.login("a@x.com", "pw1")

	rec := s.do(http.MethodGet, "/readings/summary", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"avg_systolic":0,"avg_diastolic":0}`, rec.Body.String())

	for _, body := range []string{
		`{"systolic":120,"diastolic":80,"date":"2025-07-01"}`,
		`{"systolic":125,"diastolic":83,"date":"2025-07-02"}`,
	} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/readings", token, body).Code)
	}

	rec = s.do(http.MethodGet, "/readings/summary", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":2,"avg_systolic":122.5,"avg_diastolic":81.5}`, rec.Body.String())
}

func TestDeleteMe_InvalidatesOutstandingTokens(t *testing.T) {
	s := newTestServer(t)
	s.register("a@x.com", "pw1")
	token := s.login("a@x.com", "pw1")

	rec := s.do(http.MethodPost, "/readings", token, `{"systolic":120,"diastolic":80,"date":"2025-07-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodDelete, "/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User has been deleted!", message(t, rec))

	rec = s.do(http.MethodGet, "/readings", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is invalid!", message(t, rec))

	rec = s.do(http.MethodPost, "/readings", token, `{"systolic":120,"diastolic":80,"date":"2025-07-11"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodGet, "/readings/summary", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the email is free again and the new account starts empty
	s.register("a@x.com", "pw1")
	fresh := s.login("a@x.com", "pw1")
	rec = s.do(http.MethodGet, "/readings", fresh, "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	// ids are never reused, so the old token does not reach the new account
	rec = s.do(http.MethodGet, "/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRouteIsNotGuarded(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/readings", bytes.NewReader(nil))
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	req.Header.Set(echo.HeaderAccessControlRequestHeaders, auth.TokenHeader)
	preflight := httptest.NewRecorder()
	s.e.ServeHTTP(preflight, req)

	assert.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Equal(t, "*", preflight.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, strings.ToLower(preflight.Header().Get(echo.HeaderAccessControlAllowHeaders)), auth.TokenHeader)
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
