// directoryd serves the session directory plus the best-effort relay
// credential endpoint. One instance can back any number of concurrent
// sessions; it stores nothing durable.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"chronoline/internal/directory"
)

type config struct {
	Listen     string                    `mapstructure:"listen"`
	SessionTTL time.Duration             `mapstructure:"sessionTTL"`
	ICEServers directory.TURNCredentials `mapstructure:"iceServers"`
}

func loadConfig(path string) (*config, error) {
	v := viper.New()
	v.SetDefault("listen", ":8790")
	v.SetDefault("sessionTTL", 5*time.Minute)

	v.SetConfigName("directoryd")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	// config file is optional; defaults are a working directory server
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to directoryd.yaml")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	reg := directory.NewRegistry(cfg.SessionTTL)
	go func() {
		t := time.NewTicker(cfg.SessionTTL)
		defer t.Stop()
		for range t.C {
			if n := reg.Sweep(time.Now()); n > 0 {
				log.Info("swept expired sessions", "count", n)
			}
		}
	}()

	srv := directory.NewServer(reg, cfg.ICEServers, log)
	log.Info("directoryd listening", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, srv.Routes()); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
