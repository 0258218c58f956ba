package cmd

import (
	"context"
	"log/slog"

	"partnerdispatch/api"
	httpadapter "partnerdispatch/internal/adapters/in/http"
	"partnerdispatch/internal/adapters/out/identity"
	"partnerdispatch/internal/adapters/out/memory"
	"partnerdispatch/internal/adapters/out/nsq"
	"partnerdispatch/internal/adapters/out/postgres"
	"partnerdispatch/internal/adapters/out/routing"
	"partnerdispatch/internal/broadcast"
	"partnerdispatch/internal/core/application/usecases/commands"
	"partnerdispatch/internal/core/application/usecases/queries"
	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/ports"
	"partnerdispatch/internal/feed"
	"partnerdispatch/internal/jobs"
	"partnerdispatch/internal/session"
	"partnerdispatch/internal/tracking"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	gonsq "github.com/nsqio/go-nsq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CompositionRoot owns every long lived component of the service.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB     *gorm.DB
	uowFactory ports.UnitOfWorkFactory
	routes     ports.RouteProvider
	producer   *gonsq.Producer

	hub        *broadcast.Hub
	tracker    *tracking.Tracker
	sessions   *session.Manager
	httpServer *httpadapter.Server
}

// NewCompositionRoot opens the store and builds the dispatch core. Close
// releases what it opened.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{cfg: cfg, logger: logger}

	switch cfg.StoreDriver {
	case StoreMemory:
		logger.WarnContext(ctx, "Using the in-memory store; data is lost on exit")
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
	default:
		db, err := postgres.Open(cfg.DSN(), cfg.MigrateOnStart, logger)
		if err != nil {
			return nil, err
		}
		c.gormDB = db
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
	}

	switch cfg.RouteProvider {
	case RoutesOSRM:
		c.routes = routing.NewOSRMClient(cfg.OSRMBaseURL, cfg.OSRMTimeout)
	default:
		c.routes = routing.NewStraightLine(cfg.RouteSteps)
	}

	if cfg.NSQEnabled {
		producer, err := nsq.NewProducer(cfg.NSQDHost)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.producer = producer
	}

	c.hub = broadcast.NewHub(cfg.SubscriberBuffer)

	var sources tracking.SourceFactory
	if cfg.FeedMode == FeedSimulated {
		sources = tracking.SimulatedSources(feed.WithCadence(cfg.FeedCadence))
	}
	c.tracker = tracking.NewTracker(c.hub, c.CreateAssignJobRouteCommandHandler(), sources, logger)

	hashKey, blockKey, err := cfg.TokenKeys()
	if err != nil {
		c.Close()
		return nil, err
	}
	if hashKey == nil {
		logger.WarnContext(ctx, "TOKEN_HASH_KEY and TOKEN_BLOCK_KEY are unset; tokens will not survive a restart")
		hashKey, blockKey = securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)
	}
	provider := identity.NewProvider(c.readRepos().PartnerRepository(), identity.NewBcryptHasher(bcrypt.DefaultCost),
		hashKey, blockKey, cfg.TokenTTL)

	c.sessions = session.NewManager(provider,
		c.CreateClaimJobCommandHandler(),
		c.CreateUpdateJobStatusCommandHandler(),
		c.CreateGetUnclaimedJobsQueryHandler(),
		c.CreateGetActiveJobQueryHandler(),
		c.hub, logger)

	return c, nil
}

// observers run after every committed status change, in this order.
func (c *CompositionRoot) observers() []commands.StatusObserver {
	observers := []commands.StatusObserver{
		c.tracker,
		commands.StatusObserverFunc(func(ctx context.Context, s job.Snapshot, e job.StatusChanged) {
			c.sessions.HandleStatusChanged(ctx, s, e)
		}),
	}
	if c.producer != nil {
		publisher := nsq.NewPublisher(c.producer, c.cfg.NSQStatusTopic)
		observers = append(observers, commands.NewEventForwarder(publisher, c.logger))
	}
	return observers
}

// readRepos returns repositories outside any transaction, for queries.
func (c *CompositionRoot) readRepos() ports.UnitOfWork {
	return c.uowFactory.Create()
}

func (c *CompositionRoot) CreateClaimJobCommandHandler() commands.ClaimJobCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewClaimJobCommandHandler(f, c.observers()...)
}

func (c *CompositionRoot) CreateUpdateJobStatusCommandHandler() commands.UpdateJobStatusCommandHandler {
	var f commands.JobUoWFactory = FuncJobUoWFactory(func() commands.JobUoW {
		return c.uowFactory.Create()
	})
	return commands.NewUpdateJobStatusCommandHandler(f, c.routes, c.observers()...)
}

func (c *CompositionRoot) CreateAssignJobRouteCommandHandler() commands.AssignJobRouteCommandHandler {
	var f commands.JobUoWFactory = FuncJobUoWFactory(func() commands.JobUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignJobRouteCommandHandler(f, c.routes)
}

func (c *CompositionRoot) CreateCreateJobCommandHandler() commands.CreateJobCommandHandler {
	var f commands.JobUoWFactory = FuncJobUoWFactory(func() commands.JobUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateJobCommandHandler(f)
}

func (c *CompositionRoot) CreateRegisterPartnerCommandHandler() commands.RegisterPartnerCommandHandler {
	var f commands.PartnerUoWFactory = FuncPartnerUoWFactory(func() commands.PartnerUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterPartnerCommandHandler(f, identity.NewBcryptHasher(bcrypt.DefaultCost))
}

func (c *CompositionRoot) CreateVerifyPartnerCommandHandler() commands.VerifyPartnerCommandHandler {
	var f commands.PartnerUoWFactory = FuncPartnerUoWFactory(func() commands.PartnerUoW {
		return c.uowFactory.Create()
	})
	return commands.NewVerifyPartnerCommandHandler(f)
}

func (c *CompositionRoot) CreateGetUnclaimedJobsQueryHandler() queries.GetUnclaimedJobsQueryHandler {
	return queries.NewGetUnclaimedJobsQueryHandler(c.readRepos().JobRepository())
}

func (c *CompositionRoot) CreateGetActiveJobQueryHandler() queries.GetActiveJobQueryHandler {
	return queries.NewGetActiveJobQueryHandler(c.readRepos().JobRepository())
}

func (c *CompositionRoot) CreateGetJobQueryHandler() queries.GetJobQueryHandler {
	return queries.NewGetJobQueryHandler(c.readRepos().JobRepository())
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.readRepos().JobRepository(),
		c.CreateAssignJobRouteCommandHandler(),
		c.sessions,
		c.hub,
		jobs.Settings{SessionIdleTTL: c.cfg.SessionIdleTTL, ChannelTTL: c.cfg.ChannelTTL},
		c.logger,
	)
}

// CreateEcho builds the HTTP server with all routes and middleware.
func (c *CompositionRoot) CreateEcho(ctx context.Context) (*echo.Echo, error) {
	doc, err := api.Load(ctx)
	if err != nil {
		return nil, err
	}
	server := httpadapter.NewServer(
		c.sessions,
		c.hub,
		c.CreateCreateJobCommandHandler(),
		c.CreateUpdateJobStatusCommandHandler(),
		c.CreateGetJobQueryHandler(),
		httpadapter.Options{
			DispatcherAPIKey: c.cfg.DispatcherAPIKey,
			StaleAfter:       c.cfg.StaleAfter,
			Heartbeat:        c.cfg.Heartbeat,
		},
		c.logger,
	)
	c.httpServer = server
	return httpadapter.NewEcho(server, doc, c.cfg.ValidateRequests)
}

// ResumeTracking reopens the channels of jobs left in progress by a previous
// run and restarts the feeds of those in transit.
func (c *CompositionRoot) ResumeTracking(ctx context.Context) error {
	n, err := c.tracker.Resume(ctx, c.readRepos().JobRepository())
	if err != nil {
		return err
	}
	if n > 0 {
		c.logger.InfoContext(ctx, "Resumed jobs in progress", "jobs", n)
	}
	return nil
}

// Shutdown ends open position streams and stops running feeds. Channels stay
// open; the jobs are still in progress and are resumed on the next start.
func (c *CompositionRoot) Shutdown(ctx context.Context) error {
	if c.httpServer != nil {
		c.httpServer.CloseStreams()
	}
	return c.tracker.Shutdown(ctx)
}

func (c *CompositionRoot) Close() {
	if c.producer != nil {
		c.producer.Stop()
	}
	if c.gormDB != nil {
		if sqlDB, err := c.gormDB.DB(); err == nil {
			if err = sqlDB.Close(); err != nil {
				c.logger.Error("Failed to close database", "error", err)
			}
		}
	}
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncJobUoWFactory func() commands.JobUoW

func (f FuncJobUoWFactory) Create() commands.JobUoW {
	return f()
}

type FuncPartnerUoWFactory func() commands.PartnerUoW

func (f FuncPartnerUoWFactory) Create() commands.PartnerUoW {
	return f()
}
