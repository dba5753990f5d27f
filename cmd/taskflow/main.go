package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/isabelacreiter/TaskFlow/internal/collection"
	"github.com/isabelacreiter/TaskFlow/internal/config"
	"github.com/isabelacreiter/TaskFlow/internal/handlers"
	"github.com/isabelacreiter/TaskFlow/internal/logging"
	"github.com/isabelacreiter/TaskFlow/internal/session"
	"github.com/isabelacreiter/TaskFlow/internal/store"
	"github.com/isabelacreiter/TaskFlow/internal/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	configPath := flag.String("config", "taskflow.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Init("")
		logging.Logger.Fatalf("load config: %v", err)
	}
	logging.Init(cfg.Log.File)
	log := logging.Logger
	log.Info("starting taskflow")

	// The backend client is constructed here and injected below; nothing
	// holds it as ambient global state.
	var (
		tasksCol collection.Collection
		userRepo users.Repository
	)
	switch cfg.Backend {
	case config.BackendMemory:
		tasksCol = collection.NewMemory()
		userRepo = users.NewMemoryRepository()
		log.Info("using in-memory backend")
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			log.Fatalf("mongodb connection failed: %v", err)
		}
		defer client.Disconnect(context.Background())

		if err := client.Ping(ctx, nil); err != nil {
			log.Fatalf("mongodb ping failed: %v", err)
		}
		log.Infof("connected to mongodb at %s", cfg.Mongo.URI)

		db := client.Database(cfg.Mongo.Database)
		tasksCol = collection.NewMongo(db.Collection(cfg.Mongo.TasksCollection), log)
		userRepo = users.NewMongoRepository(db.Collection(cfg.Mongo.UsersCollection))
	}

	stores := store.NewManager(collection.WithBreaker(tasksCol, log), log)
	defer stores.TeardownAll()

	sessions := session.NewRegistry(func(p *session.Provider) {
		store.Bind(p, stores)
	})

	h := &handlers.Handler{
		Users:       userRepo,
		Stores:      stores,
		Sessions:    sessions,
		RateLimiter: handlers.NewRateLimiter(10, time.Minute),
		JWTSecret:   cfg.Auth.JWTSecret,
		Log:         log,
	}

	log.Infof("server listening on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, h.Router()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
