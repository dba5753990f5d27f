// Package config loads settings from an optional TOML file, a .env
// file, and the environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Server  Server `toml:"server"`
	Mongo   Mongo  `toml:"mongo"`
	Auth    Auth   `toml:"auth"`
	Log     Log    `toml:"log"`
	Backend string `toml:"backend"`
}

type Server struct {
	Addr string `toml:"addr"`
}

type Mongo struct {
	URI             string `toml:"uri"`
	Database        string `toml:"database"`
	TasksCollection string `toml:"tasks_collection"`
	UsersCollection string `toml:"users_collection"`
}

type Auth struct {
	JWTSecret string `toml:"jwt_secret"`
}

type Log struct {
	File string `toml:"file"`
}

func defaults() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Mongo: Mongo{
			URI:             "mongodb://localhost:27017",
			Database:        "taskflow",
			TasksCollection: "tasks",
			UsersCollection: "users",
		},
		Backend: BackendMongo,
	}
}

// Load reads path (when non-empty and present), then applies .env and
// environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env is optional; a missing file is not an error
	_ = godotenv.Load(".env")

	override(&cfg.Server.Addr, "SERVER_ADDR")
	override(&cfg.Mongo.URI, "MONGO_URI")
	override(&cfg.Mongo.Database, "MONGO_DB_NAME")
	override(&cfg.Mongo.TasksCollection, "MONGO_TASKS_COLLECTION")
	override(&cfg.Mongo.UsersCollection, "MONGO_USERS_COLLECTION")
	override(&cfg.Auth.JWTSecret, "JWT_SECRET")
	override(&cfg.Log.File, "LOG_FILE")
	override(&cfg.Backend, "TASKFLOW_BACKEND")

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is not set")
	}
	if c.Backend != BackendMongo && c.Backend != BackendMemory {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
