package httpapi_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/httpapi"
	"github.com/serverless/shutdownd/intercept"
	"github.com/serverless/shutdownd/mock"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/shutdown"
)

var (
	secret = []byte("s3cret")
	root   = shutdown.Caller{Name: "anonymous", Privileged: true}
)

func TestShutdown_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, shutdowns, _ := setup(ctrl, nil)

	shutdowns.EXPECT().Shutdown(gomock.Any(), root, "sales", registry.Transactional).
		Return(&shutdown.Result{Database: "sales", DatabaseID: 16384, Mode: registry.Transactional, WatcherPID: 4242}, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases/sales/shutdown", strings.NewReader(`{"mode":"transactional"}`))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	result := &shutdown.Result{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), result))
	assert.Equal(t, registry.Transactional, result.Mode)
	assert.Equal(t, registry.PID(4242), result.WatcherPID)
}

func TestShutdown_DefaultsToNormal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, shutdowns, _ := setup(ctrl, nil)

	shutdowns.EXPECT().Shutdown(gomock.Any(), root, "sales", registry.Normal).
		Return(&shutdown.Result{Database: "sales", DatabaseID: 16384, Mode: registry.Normal}, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases/sales/shutdown", nil)
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestShutdown_Warning(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, shutdowns, _ := setup(ctrl, nil)

	shutdowns.EXPECT().Shutdown(gomock.Any(), root, "sales", registry.Abort).
		Return(&shutdown.Result{Database: "sales", DatabaseID: 16384, Mode: registry.Abort, Warning: `Database "sales" is already shut down.`}, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases/sales/shutdown", strings.NewReader(`{"mode":"ABORT"}`))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"warning":"Database \"sales\" is already shut down."`)
}

func TestShutdown_InvalidMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _, _ := setup(ctrl, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases/sales/shutdown", strings.NewReader(`{"mode":"smart"}`))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, `Invalid shutdown mode "smart".`, errorMessage(t, resp))
}

func TestShutdown_MalformedJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _, _ := setup(ctrl, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases/sales/shutdown", strings.NewReader(`{"mode":`))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestShutdown_ErrorStatus(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
	}{
		{"protected", &shutdown.ErrProtectedDatabase{Name: "postgres"}, http.StatusForbidden},
		{"denied", &shutdown.ErrPermissionDenied{Operation: "shut down"}, http.StatusForbidden},
		{"not found", &catalog.ErrDatabaseNotFound{Name: "sales"}, http.StatusNotFound},
		{"full", &registry.ErrRegistryFull{Capacity: 1024}, http.StatusServiceUnavailable},
		{"detached", &registry.ErrNotAttached{}, http.StatusServiceUnavailable},
		{"collaborator", errors.New("connection refused"), http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			router, shutdowns, _ := setup(ctrl, nil)

			shutdowns.EXPECT().Shutdown(gomock.Any(), gomock.Any(), "sales", registry.Immediate).Return(nil, tc.err)

			resp := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/v1/databases/sales/shutdown", strings.NewReader(`{"mode":"immediate"}`))
			router.ServeHTTP(resp, req)

			assert.Equal(t, tc.status, resp.Code)
			assert.Equal(t, tc.err.Error(), errorMessage(t, resp))
		})
	}
}

func TestStartup_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, shutdowns, _ := setup(ctrl, nil)

	shutdowns.EXPECT().Startup(gomock.Any(), root, "sales").Return(&shutdown.Result{Database: "sales", DatabaseID: 16384}, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases/sales/startup", nil)
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"database":"sales","databaseId":16384}`, resp.Body.String())
}

func TestList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, shutdowns, _ := setup(ctrl, nil)

	shutdowns.EXPECT().List(gomock.Any(), root).Return([]shutdown.Entry{
		{DatabaseID: 16384, Database: "sales", Mode: registry.Transactional, Running: true},
	}, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/shutdown", nil)
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"databases":[{"databaseId":16384,"database":"sales","mode":"TRANSACTIONAL","isRunning":true}]}`, resp.Body.String())
}

func TestList_BearerToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, shutdowns, _ := setup(ctrl, &httpapi.Authenticator{Secret: secret})

	gomock.InOrder(
		shutdowns.EXPECT().List(gomock.Any(), shutdown.Caller{Name: "monitor", Privileged: true}).Return([]shutdown.Entry{}, nil),
		shutdowns.EXPECT().List(gomock.Any(), shutdown.Caller{Name: "app"}).Return([]shutdown.Entry{}, nil),
		shutdowns.EXPECT().List(gomock.Any(), shutdown.Caller{Name: "anonymous"}).Return([]shutdown.Entry{}, nil),
	)

	for _, header := range []string{
		"Bearer " + sign(t, secret, "monitor", "pg_read_all_stats"),
		"Bearer " + sign(t, secret, "app", "readonly"),
		"",
	} {
		resp := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/v1/shutdown", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"databases":[]}`, resp.Body.String())
	}
}

func TestList_InvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _, _ := setup(ctrl, &httpapi.Authenticator{Secret: secret})

	for _, header := range []string{
		"Bearer " + sign(t, []byte("other"), "monitor", "superuser"),
		"Basic YWRtaW46YWRtaW4=",
	} {
		resp := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/v1/shutdown", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
}

func TestAdmission(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _, checker := setup(ctrl, nil)

	checker.EXPECT().Check(registry.DatabaseID(16384), false).Return(true, nil)
	checker.EXPECT().Check(registry.DatabaseID(16384), true).Return(false, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/databases/16384/admission", nil)
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	admission := &httpapi.Admission{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), admission))
	assert.Equal(t, &httpapi.Admission{Refuse: true, Warning: intercept.Warning}, admission)

	resp = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/v1/databases/16384/admission?inTransaction=true", nil)
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"refuse":false}`, resp.Body.String())
}

func TestAdmission_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _, _ := setup(ctrl, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/databases/sales/admission", nil)
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdmission_NotAttached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _, checker := setup(ctrl, nil)

	checker.EXPECT().Check(registry.DatabaseID(1), false).Return(false, &registry.ErrNotAttached{})

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/databases/1/admission", nil)
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestRegisterDatabase_Created(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, databases := setupRegistrar(ctrl, nil)

	databases.EXPECT().RegisterDatabase(gomock.Any(), &catalog.Database{ID: 16384, Name: "sales", AllowConnections: true}).
		Return(&catalog.Database{ID: 16384, Name: "sales", AllowConnections: true}, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases", strings.NewReader(`{"databaseId":16384,"database":"sales","allowConnections":true}`))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.JSONEq(t, `{"databaseId":16384,"database":"sales","allowConnections":true}`, resp.Body.String())
}

func TestRegisterDatabase_ErrorStatus(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &catalog.ErrDatabaseValidation{Message: "bad name"}, http.StatusBadRequest},
		{"already registered", &catalog.ErrDatabaseAlreadyRegistered{Name: "sales"}, http.StatusBadRequest},
		{"store", errors.New("etcd unavailable"), http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			router, databases := setupRegistrar(ctrl, nil)

			databases.EXPECT().RegisterDatabase(gomock.Any(), gomock.Any()).Return(nil, tc.err)

			resp := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/v1/databases", strings.NewReader(`{"databaseId":16384,"database":"sales"}`))
			router.ServeHTTP(resp, req)

			assert.Equal(t, tc.status, resp.Code)
			assert.Equal(t, tc.err.Error(), errorMessage(t, resp))
		})
	}
}

func TestRegisterDatabase_MalformedJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _ := setupRegistrar(ctrl, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases", strings.NewReader(`{"database":`))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegisterDatabase_PermissionDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _ := setupRegistrar(ctrl, &httpapi.Authenticator{Secret: secret})

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases", strings.NewReader(`{"databaseId":16384,"database":"sales"}`))
	req.Header.Set("Authorization", "Bearer "+sign(t, secret, "app", "readonly"))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "Permission denied to register a database.", errorMessage(t, resp))
}

func TestRegisterDatabase_PostgresCatalog(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router, _, _ := setup(ctrl, nil)

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/databases", strings.NewReader(`{"databaseId":16384,"database":"sales"}`))
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHTTPLogger_RequestID(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_duration"})
	logger := httpapi.HTTPLogger{
		Handler:         http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }),
		Log:             zap.NewNop(),
		RequestDuration: histogram,
	}

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/status", nil)
	logger.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusTeapot, resp.Code)
	assert.Len(t, resp.Header().Get(httpapi.RequestIDHeader), 36)

	resp = httptest.NewRecorder()
	req.Header.Set(httpapi.RequestIDHeader, "abc")
	logger.ServeHTTP(resp, req)

	assert.Equal(t, "abc", resp.Header().Get(httpapi.RequestIDHeader))
}

func setup(ctrl *gomock.Controller, auth *httpapi.Authenticator) (
	*httprouter.Router,
	*mock.MockShutdownService,
	*mock.MockChecker,
) {
	router := httprouter.New()
	shutdowns := mock.NewMockShutdownService(ctrl)
	checker := mock.NewMockChecker(ctrl)

	api := &httpapi.HTTPAPI{
		Shutdowns: shutdowns,
		Admission: checker,
		Auth:      auth,
		Log:       zap.NewNop(),
	}
	api.RegisterRoutes(router)

	return router, shutdowns, checker
}

func setupRegistrar(ctrl *gomock.Controller, auth *httpapi.Authenticator) (*httprouter.Router, *mock.MockRegistrar) {
	router := httprouter.New()
	databases := mock.NewMockRegistrar(ctrl)

	api := &httpapi.HTTPAPI{
		Shutdowns: mock.NewMockShutdownService(ctrl),
		Admission: mock.NewMockChecker(ctrl),
		Databases: databases,
		Auth:      auth,
		Log:       zap.NewNop(),
	}
	api.RegisterRoutes(router)

	return router, databases
}

func sign(t *testing.T, key []byte, subject string, roles ...string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &httpapi.Claims{
		Roles:            roles,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func errorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	body := &httpapi.Response{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), body))
	require.Len(t, body.Errors, 1)
	return body.Errors[0].Message
}
