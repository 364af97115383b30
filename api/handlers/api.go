package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/api"
	"github.com/carlogapp/carlog-api/api/scheduler"
	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/databases"
	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
	"github.com/carlogapp/carlog-api/ws"
)

// App stores the router, the record store and its collaborators, so they can
// be reused across requests
type App struct {
	Router      *mux.Router
	Config      config.Config
	Store       *store.RecordStore
	Persistence *databases.MongoPersistence
	Hub         *ws.Hub
	Scheduler   *scheduler.Scheduler
	dbHelper    databases.DatabaseHelper
	cancelRun   context.CancelFunc
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareConfig{Config: &a.Config}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	v := Vehicle{Store: a.Store}
	mt := Maintenance{Store: a.Store}
	inv := Invoice{Store: a.Store, Persistence: a.Persistence}
	link := ShareLink{Store: a.Store, Config: &a.Config}
	feed := EventFeed{Hub: a.Hub, Store: a.Store}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/vehicles", api.Middleware(http.HandlerFunc(v.VehicleHandler))).Methods("GET")
	apiCreate.Handle("/vehicles", api.Middleware(http.HandlerFunc(v.CreateVehicleHandler))).Methods("POST")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.VehicleByIDHandler))).Methods("GET")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.UpdateVehicleHandler))).Methods("PUT")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.DeleteVehicleHandler))).Methods("DELETE")
	apiCreate.Handle("/vehicle/{vehicle_id}/select", api.Middleware(http.HandlerFunc(v.SelectVehicleHandler))).Methods("POST")
	apiCreate.Handle("/vehicle/{vehicle_id}/summary", api.Middleware(http.HandlerFunc(v.SummaryHandler))).Methods("GET")

	apiCreate.Handle("/vehicle/{vehicle_id}/maintenance", api.Middleware(http.HandlerFunc(mt.MaintenanceByVehicleHandler))).Methods("GET")
	apiCreate.Handle("/vehicle/{vehicle_id}/maintenance", api.Middleware(http.HandlerFunc(mt.CreateMaintenanceHandler))).Methods("POST")
	apiCreate.Handle("/maintenance/{entry_id}", api.Middleware(http.HandlerFunc(mt.UpdateMaintenanceHandler))).Methods("PUT")
	apiCreate.Handle("/maintenance/{entry_id}", api.Middleware(http.HandlerFunc(mt.DeleteMaintenanceHandler))).Methods("DELETE")

	apiCreate.Handle("/vehicle/{vehicle_id}/invoice", api.TimeoutMiddleware(api.UploadTimeout)(api.Middleware(http.HandlerFunc(inv.UploadInvoiceHandler)))).Methods("POST")
	apiCreate.Handle("/maintenance/{entry_id}/invoice-link", api.Middleware(http.HandlerFunc(link.CreateShareLinkHandler))).Methods("POST")
	apiCreate.Handle("/invoice-link/{token}", http.HandlerFunc(link.RedeemShareLinkHandler)).Methods("GET")

	apiCreate.Handle("/events", api.WebsocketTokenMiddleware(api.Middleware(http.HandlerFunc(feed.ServeEventFeedHandler)))).Methods("GET")

	apiCreate.Handle("/metrics", api.Middleware(http.HandlerFunc(MetricsHandler))).Methods("GET")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database, start the
// record store and create a router
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
	zap.S().Info("carlog-api has connected to the database")

	uploader, err := databases.NewCloudinaryUploader()
	if err != nil {
		zap.S().With(err).Error("failed to create cloudinary uploader")
		return err
	}

	a.Persistence = databases.NewMongoPersistence(a.dbHelper, uploader)

	policy := store.CascadeEntries
	if a.Config.DeletePolicy == "block" {
		policy = store.BlockIfEntriesExist
	}
	a.Store = store.New(a.Config.UserEmail, a.Persistence, policy)

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancelRun = cancel
	go func() {
		if err := a.Store.Run(runCtx); err != nil && runCtx.Err() == nil {
			zap.S().Errorw("record store stopped", "error", err)
		}
	}()

	a.Hub = ws.NewHub()
	a.Hub.SetInitDataProvider(func() *ws.InitData {
		return &ws.InitData{
			Vehicles:          a.Store.Vehicles(),
			Maintenance:       a.Store.FilteredEntries(a.Store.SelectedID()),
			SelectedVehicleID: a.Store.SelectedID(),
		}
	})
	go a.Hub.Run()
	go EventFeed{Hub: a.Hub, Store: a.Store}.PumpStoreEvents()

	a.Scheduler = scheduler.NewScheduler(a.Store, &a.Config)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

// Shutdown flushes in-flight writes and stops the background workers
func (a *App) Shutdown() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Store != nil {
		a.Store.Flush()
	}
	if a.cancelRun != nil {
		a.cancelRun()
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
