package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/intercept"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/shutdown"
)

// HTTPAPI exposes REST API for shutting databases down and starting them up
type HTTPAPI struct {
	Shutdowns shutdown.Service
	Admission intercept.Checker
	// Databases registers catalog entries. The route is absent when the catalog is PostgreSQL.
	Databases catalog.Registrar
	Auth      *Authenticator
	Log       *zap.Logger
}

// ShutdownRequest is the body of a shutdown request. An empty body means NORMAL mode.
type ShutdownRequest struct {
	Mode string `json:"mode"`
}

// Admission is the answer of the interception point.
type Admission struct {
	Refuse  bool   `json:"refuse"`
	Warning string `json:"warning,omitempty"`
}

// RegisterRoutes register HTTP API routes
func (h HTTPAPI) RegisterRoutes(router *httprouter.Router) {
	router.GET("/v1/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {})
	router.Handler("GET", "/metrics", promhttp.Handler())

	if h.Databases != nil {
		router.POST("/v1/databases", h.registerDatabase)
	}
	router.POST("/v1/databases/:name/shutdown", h.shutdownDatabase)
	router.POST("/v1/databases/:name/startup", h.startupDatabase)
	router.GET("/v1/databases/:name/admission", h.checkAdmission)
	router.GET("/v1/shutdown", h.listShutdown)
}

func (h HTTPAPI) registerDatabase(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)

	caller, err := h.Auth.Caller(r)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}
	if !caller.Privileged {
		h.fail(w, encoder, &shutdown.ErrPermissionDenied{Operation: "register"})
		return
	}

	db := &catalog.Database{}
	dec := json.NewDecoder(r.Body)
	err = dec.Decode(db)
	if err != nil {
		h.fail(w, encoder, NewErrMalformedJSON(err))
		return
	}

	output, err := h.Databases.RegisterDatabase(r.Context(), db)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	h.Log.Info("Database registered.", zap.String("database", output.Name), zap.String("caller", caller.Name))
	w.WriteHeader(http.StatusCreated)
	encoder.Encode(output)
}

func (h HTTPAPI) shutdownDatabase(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)

	caller, err := h.Auth.Caller(r)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	req := &ShutdownRequest{}
	dec := json.NewDecoder(r.Body)
	err = dec.Decode(req)
	if err != nil && err != io.EOF {
		h.fail(w, encoder, NewErrMalformedJSON(err))
		return
	}

	mode := registry.Normal
	if req.Mode != "" {
		mode, err = registry.ParseMode(req.Mode)
		if err != nil {
			h.fail(w, encoder, err)
			return
		}
	}

	result, err := h.Shutdowns.Shutdown(r.Context(), caller, params.ByName("name"), mode)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	encoder.Encode(result)
}

func (h HTTPAPI) startupDatabase(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)

	caller, err := h.Auth.Caller(r)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	result, err := h.Shutdowns.Startup(r.Context(), caller, params.ByName("name"))
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	encoder.Encode(result)
}

func (h HTTPAPI) listShutdown(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)

	caller, err := h.Auth.Caller(r)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	entries, err := h.Shutdowns.List(r.Context(), caller)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	encoder.Encode(&shutdown.Entries{Databases: entries})
}

// checkAdmission takes a database ID; the route shares its wildcard name with the other
// database routes.
func (h HTTPAPI) checkAdmission(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)

	id, err := strconv.ParseUint(params.ByName("name"), 10, 32)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		encoder.Encode(&Response{Errors: []Error{{Message: "Database ID must be a number."}}})
		return
	}
	inTransaction, _ := strconv.ParseBool(r.URL.Query().Get("inTransaction"))

	refuse, err := h.Admission.Check(registry.DatabaseID(id), inTransaction)
	if err != nil {
		h.fail(w, encoder, err)
		return
	}

	admission := &Admission{Refuse: refuse}
	if refuse {
		admission.Warning = intercept.Warning
	}
	encoder.Encode(admission)
}

func (h HTTPAPI) fail(w http.ResponseWriter, encoder *json.Encoder, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("Admin request failed.", zap.Error(err))
	}
	w.WriteHeader(status)
	encoder.Encode(&Response{Errors: []Error{{Message: err.Error()}}})
}
