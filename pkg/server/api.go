package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/schema"
	"github.com/matst80/rdf-finder/pkg/common"
	"github.com/matst80/rdf-finder/pkg/query"
	"github.com/matst80/rdf-finder/pkg/session"
	"github.com/matst80/rdf-finder/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_api_requests_total",
		Help: "API requests by route",
	}, []string{"route"})

	decoder = schema.NewDecoder()
)

func init() {
	decoder.IgnoreUnknownKeys(true)
}

const maxBodySize = 1 << 20

// ApiServer exposes a session's controller to the render layer. Every
// mutating call answers with the resulting view, callers that pass wait=true
// get it once loading has settled.
type ApiServer struct {
	Sessions    *Sessions
	Logger      *zap.Logger
	WaitTimeout time.Duration
}

func NewApiServer(sessions *Sessions, logger *zap.Logger) *ApiServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApiServer{Sessions: sessions, Logger: logger, WaitTimeout: 10 * time.Second}
}

func (ws *ApiServer) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, error) {
	sessionId, _ := common.HandleSessionCookie(w, r)
	return ws.Sessions.Get(sessionId, r.URL.Query().Get("hash"))
}

func contextWithTimeout(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), timeout)
}

func (ws *ApiServer) respond(r *http.Request, ctrl *session.Controller) (any, error) {
	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := contextWithTimeout(r, ws.WaitTimeout)
		defer cancel()
		return ctrl.WaitIdle(ctx, 20*time.Millisecond)
	}
	return ctrl.View(r.Context())
}

// handle wraps an action on the session's controller.
func (ws *ApiServer) handle(route string, action func(r *http.Request, ctrl *session.Controller) error) http.HandlerFunc {
	return common.JsonHandler(ws.Logger, func(w http.ResponseWriter, r *http.Request) (any, error) {
		apiRequests.WithLabelValues(route).Inc()
		ctrl, err := ws.controller(w, r)
		if err != nil {
			return nil, err
		}
		if action != nil {
			if err := action(r, ctrl); err != nil {
				return nil, err
			}
		}
		return ws.respond(r, ctrl)
	})
}

func badInput(err error) error {
	switch {
	case errors.Is(err, query.ErrEmptyQuery), errors.Is(err, query.ErrNoClass), errors.Is(err, state.ErrMalformedHash):
		return common.BadRequest(err)
	case errors.Is(err, session.ErrUnknownClass):
		return common.NotFound(err)
	case errors.Is(err, session.ErrNoStatistics):
		return &common.HttpError{Status: http.StatusConflict, Err: err}
	}
	return err
}

func (ws *ApiServer) Search(r *http.Request, ctrl *session.Controller) error {
	if err := r.ParseForm(); err != nil {
		return common.BadRequest(err)
	}
	form := session.SearchForm{}
	if err := decoder.Decode(&form, r.Form); err != nil {
		return common.BadRequest(err)
	}
	return badInput(ctrl.Search(r.Context(), form))
}

func (ws *ApiServer) SearchByClass(r *http.Request, ctrl *session.Controller) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return common.BadRequest(err)
	}
	q := query.ClassQuery{}
	if err := sonic.Unmarshal(body, &q); err != nil {
		return common.BadRequest(err)
	}
	return badInput(ctrl.SearchByClass(r.Context(), q))
}

func (ws *ApiServer) SelectPage(r *http.Request, ctrl *session.Controller) error {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		return common.BadRequest(fmt.Errorf("page: %w", err))
	}
	return ctrl.SelectPage(r.Context(), page)
}

func (ws *ApiServer) Navigate(r *http.Request, ctrl *session.Controller) error {
	return badInput(ctrl.Navigate(r.Context(), r.URL.Query().Get("hash")))
}

func (ws *ApiServer) Back(r *http.Request, ctrl *session.Controller) error {
	_, err := ctrl.Back(r.Context())
	return err
}

func (ws *ApiServer) Forward(r *http.Request, ctrl *session.Controller) error {
	_, err := ctrl.Forward(r.Context())
	return err
}

func (ws *ApiServer) SelectDataset(r *http.Request, ctrl *session.Controller) error {
	return ctrl.SelectDataset(r.Context(), r.PathValue("id"))
}

func (ws *ApiServer) OpenDocument(r *http.Request, ctrl *session.Controller) error {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return common.BadRequest(fmt.Errorf("document id: %w", err))
	}
	return ctrl.OpenDocument(r.Context(), id)
}

func (ws *ApiServer) DismissNotice(r *http.Request, ctrl *session.Controller) error {
	return ctrl.DismissNotice(r.Context(), r.PathValue("id"))
}

func (ws *ApiServer) Refresh(r *http.Request, ctrl *session.Controller) error {
	return ctrl.Refresh(r.Context())
}

type propertiesResponse struct {
	Class      string   `json:"class"`
	Properties []string `json:"properties"`
}

func (ws *ApiServer) Properties(w http.ResponseWriter, r *http.Request) (any, error) {
	apiRequests.WithLabelValues("properties").Inc()
	ctrl, err := ws.controller(w, r)
	if err != nil {
		return nil, err
	}
	class := r.URL.Query().Get("class")
	if class == "" {
		return nil, common.BadRequest(errors.New("class is required"))
	}
	props, err := ctrl.Properties(r.Context(), class)
	if err != nil {
		return nil, badInput(err)
	}
	if props == nil {
		props = []string{}
	}
	return propertiesResponse{Class: class, Properties: props}, nil
}

func (ws *ApiServer) Handle() *http.ServeMux {
	srv := http.NewServeMux()
	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.Handle("GET /metrics", promhttp.Handler())
	srv.HandleFunc("OPTIONS /api/", common.RespondToOptions)

	srv.HandleFunc("GET /api/view", ws.handle("view", nil))
	srv.HandleFunc("GET /api/search", ws.handle("search", ws.Search))
	srv.HandleFunc("POST /api/search", ws.handle("search", ws.Search))
	srv.HandleFunc("POST /api/search-by-class", ws.handle("search-by-class", ws.SearchByClass))
	srv.HandleFunc("GET /api/page/{page}", ws.handle("page", ws.SelectPage))
	srv.HandleFunc("GET /api/navigate", ws.handle("navigate", ws.Navigate))
	srv.HandleFunc("POST /api/back", ws.handle("back", ws.Back))
	srv.HandleFunc("POST /api/forward", ws.handle("forward", ws.Forward))
	srv.HandleFunc("GET /api/dataset/{id}", ws.handle("dataset", ws.SelectDataset))
	srv.HandleFunc("GET /api/document/{id}", ws.handle("document", ws.OpenDocument))
	srv.HandleFunc("POST /api/refresh", ws.handle("refresh", ws.Refresh))
	srv.HandleFunc("DELETE /api/notices/{id}", ws.handle("notice", ws.DismissNotice))
	srv.HandleFunc("GET /api/properties", common.JsonHandler(ws.Logger, ws.Properties))
	return srv
}
