package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/auth"
	"github.com/frontier-realms/world-server/internal/buildqueue"
	"github.com/frontier-realms/world-server/internal/delivery/http/middleware"
	"github.com/frontier-realms/world-server/internal/events"
	"github.com/frontier-realms/world-server/internal/movement"
	"github.com/frontier-realms/world-server/internal/resource"
	"github.com/frontier-realms/world-server/internal/store"
	"github.com/frontier-realms/world-server/internal/trainqueue"
)

// Dependencies bundles everything the router needs to build handlers —
// one struct instead of a dozen positional constructor arguments, since
// the endpoint surface here is considerably wider than the teacher's.
type Dependencies struct {
	Logger     *zap.Logger
	Verifier   *auth.Verifier
	Users      *store.UserStore
	Villages   *store.VillageStore
	Buildings  *store.BuildingStore
	Troops     *store.TroopStore
	Armies     *store.ArmyStore
	Reports    *store.ReportStore
	Resources  *resource.Engine
	BuildQueue *buildqueue.Engine
	TrainQueue *trainqueue.Engine
	Movement   *movement.Engine
	Publisher  *events.Publisher
}

// NewRouter builds the gorilla/mux router for the whole HTTP API,
// following the teacher's subrouter-per-resource layout.
func NewRouter(d Dependencies) *mux.Router {
	authHandler := NewAuthHandler(d.Logger, d.Users, d.Verifier)
	villageHandler := NewVillageHandler(d.Logger, d.Villages, d.Buildings, d.Troops, d.Resources, d.Movement, d.Publisher)
	buildingHandler := NewBuildingHandler(d.Logger, d.Buildings, d.BuildQueue, d.Publisher)
	troopHandler := NewTroopHandler(d.Logger, d.TrainQueue, d.Publisher)
	armyHandler := NewArmyHandler(d.Logger, d.Armies, d.Villages, d.Movement, d.Publisher)
	reportHandler := NewReportHandler(d.Logger, d.Reports)

	router := mux.NewRouter()
	router.Use(middleware.Recovery(d.Logger))
	router.Use(middleware.CORS)
	router.Use(middleware.LoggingMiddleware)
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	authed := api.PathPrefix("").Subrouter()
	authed.Use(middleware.Authenticate(d.Verifier))

	authed.HandleFunc("/villages", villageHandler.ListVillages).Methods(http.MethodGet)
	authed.HandleFunc("/villages", villageHandler.CreateVillage).Methods(http.MethodPost)
	authed.HandleFunc("/villages/{id}", villageHandler.GetVillage).Methods(http.MethodGet)
	authed.HandleFunc("/villages/{id}/buildings/{slot}", buildingHandler.Build).Methods(http.MethodPost)
	authed.HandleFunc("/villages/{id}/buildings/{slot}/upgrade", buildingHandler.Upgrade).Methods(http.MethodPost)
	authed.HandleFunc("/villages/{id}/buildings/{slot}", buildingHandler.Demolish).Methods(http.MethodDelete)
	authed.HandleFunc("/villages/{id}/troops/train", troopHandler.Train).Methods(http.MethodPost)
	authed.HandleFunc("/villages/{id}/armies", armyHandler.Dispatch).Methods(http.MethodPost)
	authed.HandleFunc("/villages/{id}/armies/outgoing", armyHandler.ListOutgoing).Methods(http.MethodGet)
	authed.HandleFunc("/villages/{id}/armies/incoming", armyHandler.ListIncoming).Methods(http.MethodGet)
	authed.HandleFunc("/villages/{id}/armies/stationed", armyHandler.ListStationed).Methods(http.MethodGet)
	authed.HandleFunc("/armies/{id}/recall", armyHandler.Recall).Methods(http.MethodPost)
	authed.HandleFunc("/reports", reportHandler.ListReports).Methods(http.MethodGet)
	authed.HandleFunc("/reports/{id}/read", reportHandler.MarkReportRead).Methods(http.MethodPost)
	authed.HandleFunc("/scout-reports", reportHandler.ListScoutReports).Methods(http.MethodGet)
	authed.HandleFunc("/map", villageHandler.GetMap).Methods(http.MethodGet)

	return router
}
