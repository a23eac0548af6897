package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/stemqueue"
	stg "github.com/arbor-audio/arbor-node/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// APIConfig type represents the configuration for the API HTTP server.
// It includes the host, port, the voting engine and the storage instance.
type APIConfig struct {
	Host    string
	Port    int
	Engine  *stemqueue.Engine
	Storage *stg.Storage
}

// API type represents the API HTTP server.
type API struct {
	router  *chi.Mux
	engine  *stemqueue.Engine
	storage *stg.Storage
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Engine == nil {
		return nil, fmt.Errorf("missing voting engine instance")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	a := &API{
		engine:  conf.Engine,
		storage: conf.Storage,
	}

	// Initialize router
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// NewOffline builds an API with its router initialized but without binding a
// listener, for callers that mount the router themselves.
func NewOffline(engine *stemqueue.Engine, storage *stg.Storage) (*API, error) {
	if engine == nil {
		return nil, fmt.Errorf("missing voting engine instance")
	}
	if storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	a := &API{engine: engine, storage: storage}
	a.initRouter()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", ProjectsEndpoint, "method", "POST")
	a.router.Post(ProjectsEndpoint, a.newProject)
	log.Infow("register handler", "endpoint", ProjectsEndpoint, "method", "GET")
	a.router.Get(ProjectsEndpoint, a.projectList)
	log.Infow("register handler", "endpoint", ProjectEndpoint, "method", "GET")
	a.router.Get(ProjectEndpoint, a.project)
	log.Infow("register handler", "endpoint", ProjectStemsEndpoint, "method", "POST")
	a.router.Post(ProjectStemsEndpoint, a.newStem)
	log.Infow("register handler", "endpoint", ProjectVotersEndpoint, "method", "POST")
	a.router.Post(ProjectVotersEndpoint, a.registerVoter)
	log.Infow("register handler", "endpoint", GroupRootEndpoint, "method", "GET")
	a.router.Get(GroupRootEndpoint, a.groupRoot)
	log.Infow("register handler", "endpoint", GroupMembersEndpoint, "method", "GET")
	a.router.Get(GroupMembersEndpoint, a.groupMembers)
	log.Infow("register handler", "endpoint", GroupProofEndpoint, "method", "GET")
	a.router.Get(GroupProofEndpoint, a.membershipProof)
	log.Infow("register handler", "endpoint", StemVotesEndpoint, "method", "POST")
	a.router.Post(StemVotesEndpoint, a.newVote)
	log.Infow("register handler", "endpoint", StemApproveEndpoint, "method", "POST")
	a.router.Post(StemApproveEndpoint, a.approveStem)
	log.Infow("register handler", "endpoint", UserEndpoint, "method", "GET")
	a.router.Get(UserEndpoint, a.user)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
