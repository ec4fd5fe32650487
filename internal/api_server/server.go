package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/wri/terramatch-workflow/internal/config"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/pkg/log"
	"github.com/wri/terramatch-workflow/pkg/metrics"
	"github.com/wri/terramatch-workflow/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type BulkApprover interface {
	ReportsForBulkApproval(ctx context.Context, projectUUID uuid.UUID) (*service.BulkApprovalResult, error)
}

type Server struct {
	cfg          *config.Config
	listener     net.Listener
	bulkApproval BulkApprover
}

// New returns a new instance of the workflow read API server.
func New(cfg *config.Config, listener net.Listener, bulkApproval BulkApprover) *Server {
	return &Server{
		cfg:          cfg,
		listener:     listener,
		bulkApproval: bulkApproval,
	}
}

// Router builds the chi router serving the workflow read endpoints.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		middleware.RequestID,
		log.ConditionalLogger(s.cfg.Service.LogLevel, zap.L(), "http"),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Route("/api/v3", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/projects/{uuid}/reports-bulk-approval", s.reportsBulkApproval)
	})

	return router
}

func (s *Server) reportsBulkApproval(w http.ResponseWriter, r *http.Request) {
	projectUUID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid project uuid")
		return
	}

	result, err := s.bulkApproval.ReportsForBulkApproval(r.Context(), projectUUID)
	if err != nil {
		var notFound *service.ErrResourceNotFound
		if errors.As(err, &notFound) {
			renderError(w, r, http.StatusNotFound, notFound.Error())
			return
		}
		zap.S().Named("api_server").Errorw("failed to list reports for bulk approval", "project", projectUUID, "error", err)
		renderError(w, r, http.StatusInternalServerError, "failed to list reports for bulk approval")
		return
	}

	render.JSON(w, r, result)
}

type errorResponse struct {
	Message string `json:"message"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Message: message})
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
