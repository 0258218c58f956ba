package http

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"partnerdispatch/internal/broadcast"
	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/application/usecases/queries"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/ports"
	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const BasePath = "/api/v1"

type Options struct {
	DispatcherAPIKey string
	StaleAfter       time.Duration
	Heartbeat        time.Duration
}

// Server implements the handlers of api/openapi.yaml. Partner requests go
// through the session manager; dispatcher requests call the use cases directly.
type Server struct {
	sessions *session.Manager
	hub      *broadcast.Hub
	opts     Options
	logger   *slog.Logger

	streamsDone chan struct{}
	closeOnce   sync.Once

	createJobHandler    commands.CreateJobCommandHandler
	updateStatusHandler commands.UpdateJobStatusCommandHandler
	getJobHandler       queries.GetJobQueryHandler
}

func NewServer(
	sessions *session.Manager,
	hub *broadcast.Hub,
	createJobHandler commands.CreateJobCommandHandler,
	updateStatusHandler commands.UpdateJobStatusCommandHandler,
	getJobHandler queries.GetJobQueryHandler,
	opts Options,
	logger *slog.Logger,
) *Server {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 5 * time.Second
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	return &Server{
		sessions:            sessions,
		hub:                 hub,
		opts:                opts,
		logger:              logger.With("component", "http"),
		streamsDone:         make(chan struct{}),
		createJobHandler:    createJobHandler,
		updateStatusHandler: updateStatusHandler,
		getJobHandler:       getJobHandler,
	}
}

// CloseStreams ends every open position stream and makes new ones end at
// once. Call it before echo's Shutdown, which waits for running handlers.
// Clients see the connection end without a closed event and reconnect.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() {
		close(s.streamsDone)
	})
}

// Register mounts every route on e under BasePath.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	v1 := e.Group(BasePath)
	v1.POST("/auth/login", s.Login)
	v1.POST("/auth/logout", s.Logout)
	v1.GET("/jobs/:id/positions/stream", s.StreamPositions)

	partner := v1.Group("", s.requirePartner)
	partner.GET("/jobs/unclaimed", s.ListUnclaimedJobs)
	partner.GET("/jobs/active", s.GetActiveJob)
	partner.POST("/jobs/:id/claim", s.ClaimJob)
	partner.PUT("/jobs/:id/status", s.UpdateJobStatus)
	partner.POST("/jobs/:id/positions", s.PublishPosition)

	dispatch := v1.Group("/dispatch", s.requireDispatcher)
	dispatch.POST("/jobs", s.CreateJob)
	dispatch.GET("/jobs/:id", s.GetJob)
	dispatch.POST("/jobs/:id/cancel", s.CancelJob)
}

// Login handles POST /api/v1/auth/login.
func (s *Server) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}

	result, err := s.sessions.Login(c.Request().Context(), ports.Credentials{Login: req.Login, Password: req.Password})
	if err != nil {
		return s.fail(c, err)
	}

	resp := LoginResponse{
		Token:     result.Identity.Token,
		PartnerID: result.Identity.PartnerID.Google(),
		ExpiresAt: result.Identity.ExpiresAt,
	}
	if result.ActiveJob != nil {
		active := toJob(*result.ActiveJob)
		resp.ActiveJob = &active
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout.
func (s *Server) Logout(c echo.Context) error {
	token, ok := bearerToken(c.Request())
	if !ok {
		return s.fail(c, errs.NewForbiddenError("logout", "missing bearer token"))
	}
	if err := s.sessions.Logout(c.Request().Context(), token); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUnclaimedJobs handles GET /api/v1/jobs/unclaimed, the polling fallback
// for idle partners.
func (s *Server) ListUnclaimedJobs(c echo.Context) error {
	list, err := s.sessions.ListUnclaimed(c.Request().Context(), currentSession(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toJobSummaries(list))
}

// GetActiveJob handles GET /api/v1/jobs/active.
func (s *Server) GetActiveJob(c echo.Context) error {
	active, err := s.sessions.ActiveJob(c.Request().Context(), currentSession(c))
	if errors.Is(err, errs.ErrObjectNotFound) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, JobResponse{Job: toJob(active)})
}

// ClaimJob handles POST /api/v1/jobs/{id}/claim.
func (s *Server) ClaimJob(c echo.Context) error {
	jobID, err := jobIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req ClaimRequest
	if err = c.Bind(&req); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}

	resp, err := s.sessions.Claim(c.Request().Context(), currentSession(c), jobID, req.Version)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, ClaimResponse{
		Accepted:        true,
		Job:             toJob(resp.Job),
		InitialPosition: toLocation(resp.InitialPosition),
	})
}

// UpdateJobStatus handles PUT /api/v1/jobs/{id}/status.
func (s *Server) UpdateJobStatus(c echo.Context) error {
	jobID, err := jobIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req StatusRequest
	if err = c.Bind(&req); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	target, err := job.ParseStatus(req.Status)
	if err != nil {
		return s.fail(c, err)
	}

	updated, err := s.sessions.UpdateStatus(c.Request().Context(), currentSession(c), jobID, target)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, JobResponse{Job: toJob(updated)})
}

// PublishPosition handles POST /api/v1/jobs/{id}/positions for partners
// reporting from a real device.
func (s *Server) PublishPosition(c echo.Context) error {
	jobID, err := jobIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req PositionRequest
	if err = c.Bind(&req); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	point, err := kernel.NewGeoPoint(req.Lat, req.Lng)
	if err != nil {
		return s.fail(c, err)
	}
	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	if err = s.sessions.Publish(c.Request().Context(), currentSession(c), jobID, point, req.Sequence, at); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// CreateJob handles POST /api/v1/dispatch/jobs.
func (s *Server) CreateJob(c echo.Context) error {
	var req NewJob
	if err := c.Bind(&req); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}

	jobID := kernel.NewUUID()
	if req.ID != nil {
		parsed, err := kernel.UUIDFromGoogle(*req.ID)
		if err != nil {
			return s.fail(c, err)
		}
		jobID = parsed
	}
	pickup, err := kernel.NewGeoPoint(req.Pickup.Lat, req.Pickup.Lng)
	if err != nil {
		return s.fail(c, err)
	}
	drop, err := kernel.NewGeoPoint(req.Drop.Lat, req.Drop.Lng)
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewCreateJobCommand(jobID, pickup, drop, req.Price)
	if err != nil {
		return s.fail(c, err)
	}
	if err = s.createJobHandler.Handle(c.Request().Context(), cmd); err != nil {
		return s.fail(c, err)
	}

	created, err := s.readJob(c, jobID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, JobResponse{Job: toJob(created)})
}

// GetJob handles GET /api/v1/dispatch/jobs/{id}.
func (s *Server) GetJob(c echo.Context) error {
	jobID, err := jobIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	found, err := s.readJob(c, jobID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, JobResponse{Job: toJob(found)})
}

// CancelJob handles POST /api/v1/dispatch/jobs/{id}/cancel.
func (s *Server) CancelJob(c echo.Context) error {
	jobID, err := jobIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewUpdateJobStatusCommand(jobID, job.DispatcherActor(), job.Cancelled)
	if err != nil {
		return s.fail(c, err)
	}

	cancelled, err := s.updateStatusHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, JobResponse{Job: toJob(cancelled)})
}

func (s *Server) readJob(c echo.Context, jobID kernel.UUID) (job.Snapshot, error) {
	query, err := queries.NewGetJobQuery(jobID)
	if err != nil {
		return job.Snapshot{}, err
	}
	return s.getJobHandler.Handle(c.Request().Context(), query)
}

func jobIDParam(c echo.Context) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return kernel.UUIDFromGoogle(id)
}
