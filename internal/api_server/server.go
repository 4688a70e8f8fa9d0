package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	api "github.com/evalportal/assessment-portal/api/v1alpha1"
	"github.com/evalportal/assessment-portal/internal/config"
	"github.com/evalportal/assessment-portal/internal/events"
	handlers "github.com/evalportal/assessment-portal/internal/handlers/v1alpha1"
	"github.com/evalportal/assessment-portal/internal/service"
	"github.com/evalportal/assessment-portal/internal/store"
	"github.com/evalportal/assessment-portal/pkg/metrics"
	"github.com/evalportal/assessment-portal/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of the portal api server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func oapiErrorHandler(w http.ResponseWriter, message string, statusCode int) {
	http.Error(w, fmt.Sprintf("API Error: %s", message), statusCode)
}

type services struct {
	evaluator *service.EvaluatorService
	task      *service.TaskService
	booking   *service.BookingService
	sweeper   *service.PoolSweeper
}

// services wires the domain services. Events are dropped when publisher is nil.
func (s *Server) services(publisher service.EventPublisher) services {
	var (
		assignmentOpts []service.AssignmentOption
		bookingOpts    []service.BookingOption
		taskOpts       []service.TaskOption
	)
	if publisher != nil {
		assignmentOpts = append(assignmentOpts, service.WithAssignmentEvents(publisher))
		bookingOpts = append(bookingOpts, service.WithBookingEvents(publisher))
		taskOpts = append(taskOpts, service.WithReviewEvents(publisher))
	}

	pool := service.NewEvaluatorPool(s.store)
	assigner := service.NewAssignmentService(s.store, pool, assignmentOpts...)
	sweeper := service.NewPoolSweeper(s.store, assigner)

	return services{
		evaluator: service.NewEvaluatorService(s.store),
		task:      service.NewTaskService(s.store, assigner, sweeper, taskOpts...),
		booking:   service.NewBookingService(s.store, pool, bookingOpts...),
		sweeper:   sweeper,
	}
}

// Handler builds the api router without an event stream. The http metrics are registered
// on reg.
func (s *Server) Handler(reg prometheus.Registerer) (http.Handler, error) {
	return s.handler(reg, s.services(nil))
}

func (s *Server) handler(reg prometheus.Registerer, srvs services) (http.Handler, error) {
	swagger, err := api.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load swagger spec: %w", err)
	}
	// Skip server name validation
	swagger.Servers = nil

	oapiOpts := oapimiddleware.Options{
		ErrorHandler: oapiErrorHandler,
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	if err := metricMiddleware.Register(reg); err != nil {
		return nil, err
	}

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Service.AllowedOrigins,
			AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		chiMiddleware.RequestID,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
		oapimiddleware.OapiRequestValidatorWithOptions(swagger, &oapiOpts),
		render.SetContentType(render.ContentTypeJSON),
	)

	handlers.NewServiceHandler(srvs.evaluator, srvs.task, srvs.booking, srvs.sweeper).Routes(router)

	return router, nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	producer := events.NewEventProducer(&events.StdoutWriter{})
	defer func() { _ = producer.Close() }()

	srvs := s.services(producer)
	router, err := s.handler(prometheus.DefaultRegisterer, srvs)
	if err != nil {
		return err
	}

	periodic := service.NewPeriodicSweeper(srvs.sweeper, s.cfg.Service.Sweeper.Interval, s.cfg.Service.Sweeper.Jitter)
	go periodic.Run(ctx)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

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
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
