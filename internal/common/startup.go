package common

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	commonconfig "github.com/jobartifacts/artifactingester/internal/common/config"
	"github.com/jobartifacts/artifactingester/internal/common/health"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
)

const baseConfigFileName = "config"

// EnvPrefix is prepended to configuration keys when reading them from the environment,
// e.g. ARTIFACTS_POSTGRES_CONNECTION_HOST overrides postgres.connection.host.
const EnvPrefix = "ARTIFACTS"

func BindCommandlineArguments() {
	err := viper.BindPFlags(pflag.CommandLine)
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

// LoadConfig reads config.yaml from defaultPath, merges every file in overrideConfigs on top of it
// and finally applies environment overrides. The result is decoded into config.
func LoadConfig(config interface{}, defaultPath string, overrideConfigs []string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(baseConfigFileName)
	v.AddConfigPath(defaultPath)
	if err := v.ReadInConfig(); err != nil {
		log.Errorf("Error reading base config path=%s name=%s: %v", defaultPath, baseConfigFileName, err)
		os.Exit(-1)
	}
	log.Infof("Read base config from %s", v.ConfigFileUsed())

	for _, overrideConfig := range overrideConfigs {
		v.SetConfigFile(overrideConfig)
		err := v.MergeInConfig()
		if err != nil {
			log.Errorf("Error reading config from %s: %v", overrideConfig, err)
			os.Exit(-1)
		}
		log.Infof("Read config from %s", v.ConfigFileUsed())
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		log.Error(err)
		os.Exit(-1)
	}
	return v
}

// ConfigureLogging sets up logging from config, exiting the process if it is invalid.
func ConfigureLogging(config commonconfig.LoggingConfig) {
	if err := logging.ConfigureLogging(config.Format, config.Level); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error initializing logging: "+err.Error())
		os.Exit(1)
	}
}

// ServeMetrics exposes Prometheus metrics and, if a checker is provided, a /health endpoint on port.
// The returned function shuts the server down.
func ServeMetrics(port uint16, checker health.Checker) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if checker != nil {
		health.SetupHttpMux(mux, checker)
	}
	return ServeHttp(port, mux)
}

// ServeHttp starts an http server for mux on port in the background.
func ServeHttp(port uint16, mux http.Handler) (shutdown func()) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting http server listening on %d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	return func() {
		log.Printf("Stopping http server listening on %d", port)
		if err := srv.Close(); err != nil {
			log.WithError(err).Warn("error closing http server")
		}
	}
}
