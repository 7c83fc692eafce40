package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/firtrack/fir-tracking-api/api"
	"github.com/firtrack/fir-tracking-api/api/scheduler"
	"github.com/firtrack/fir-tracking-api/config"
	"github.com/firtrack/fir-tracking-api/databases"
	"github.com/firtrack/fir-tracking-api/dispatch"
	"github.com/firtrack/fir-tracking-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router     *mux.Router
	Config     config.Config
	Registry   *dispatch.Registry
	Dispatcher *dispatch.Dispatcher
	Scheduler  *scheduler.Scheduler
	dbHelper   databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	firDB := databases.NewFirDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)

	a.Registry = dispatch.NewRegistry()
	a.Dispatcher = dispatch.NewDispatcher(firDB, a.Registry)

	f := Fir{DB: firDB, Dispatcher: a.Dispatcher}
	u := User{DB: userDB, Config: a.Config}
	ws := Socket{Registry: a.Registry, JWTSecret: []byte(a.Config.JWTSecret)}
	metrics := Metrics{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", m.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/ws-ticket", m.Middleware(http.HandlerFunc(u.CreateWsTicketHandler))).Methods("POST")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")

	apiCreate.Handle("/firs", m.Middleware(http.HandlerFunc(f.CreateFirHandler))).Methods("POST")
	apiCreate.Handle("/firs", m.Middleware(http.HandlerFunc(f.FirsHandler))).Methods("GET")
	apiCreate.Handle("/firs/stats/dashboard", m.Middleware(api.AdminOnly(http.HandlerFunc(f.FirStatsHandler)))).Methods("GET")
	apiCreate.Handle("/firs/{fir_id}", m.Middleware(http.HandlerFunc(f.FirByIDHandler))).Methods("GET")
	apiCreate.Handle("/firs/{fir_id}", m.Middleware(http.HandlerFunc(f.UpdateFirHandler))).Methods("PUT")
	apiCreate.Handle("/firs/{fir_id}", m.Middleware(http.HandlerFunc(f.DeleteFirHandler))).Methods("DELETE")

	apiCreate.Handle("/metrics/summary", m.Middleware(api.AdminOnly(http.HandlerFunc(metrics.SummaryHandler)))).Methods("GET")
	apiCreate.Handle("/metrics/routes", m.Middleware(api.AdminOnly(http.HandlerFunc(metrics.RoutesHandler)))).Methods("GET")

	// websocket endpoint, authenticated by a short-lived jwt ticket
	r.HandleFunc("/ws", ws.ServeWebsocket)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("fir-tracking-api has connected to the database")

	api.InitMetrics()

	// initialize api router
	a.initializeRoutes()

	// start the daily digest scheduler
	a.Scheduler = scheduler.NewScheduler(databases.NewFirDatabase(a.dbHelper), a.Config)
	a.Scheduler.Start()

	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Shutdown stops the background workers at process exit
func (a *App) Shutdown() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	api.GetMetrics().Stop()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
