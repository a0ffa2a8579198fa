package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"ADDR" env-default:":8080"`
}

type Gateway struct {
	BaseURL string        `yaml:"API_BASE_URL" env:"API_BASE_URL" env-default:"http://127.0.0.1:8000/api"`
	Timeout time.Duration `yaml:"API_TIMEOUT" env:"API_TIMEOUT" env-default:"10s"`
}

type Storage struct {
	// Path of the SQLite file holding the persisted client state.
	Path string `yaml:"STATE_PATH" env:"STATE_PATH" env-default:"storefront.db"`
}

type Tracing struct {
	Endpoint string `yaml:"OTLP_ENDPOINT" env:"OTLP_ENDPOINT" env-default:""`
}

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"development"`
	HTTPServer `yaml:"http_server"`
	Gateway    Gateway `yaml:"gateway"`
	Storage    Storage `yaml:"storage"`
	Tracing    Tracing `yaml:"tracing"`
}

// MustLoad reads the yaml config named by CONFIG_PATH or -config; with
// neither set, environment variables and defaults apply.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "gets the config flag value")
		flag.Parse()
		configPath = *flags
	}

	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("can not read config from environment: %s", err.Error())
		}

		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return &cfg
}
