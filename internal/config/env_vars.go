package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	hostEnvVar     = "HOST"
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envEnvVar      = "ENV"
	debugEnvVar    = "DEBUG"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct {
	Host     string
	Port     string
	AppName  string
	Env      string
	Debug    bool
	LogLevel string
}

var _ EnvConfig = EnvVars{}

func loadEnvVars(lookup Lookup) (EnvVars, error) {
	e := EnvVars{
		Host:    getEnv(lookup, hostEnvVar, "0.0.0.0"),
		Port:    strings.TrimPrefix(getEnv(lookup, portEnvVar, "80"), ":"),
		AppName: getEnv(lookup, appNameVar, "OAuth2 Test Client"),
		Env:     strings.ToUpper(getEnv(lookup, envEnvVar, "DEV")),
	}

	if _, err := strconv.ParseUint(e.Port, 10, 16); err != nil {
		return EnvVars{}, fmt.Errorf("%s: invalid port %q", portEnvVar, e.Port)
	}

	debug, err := strconv.ParseBool(getEnv(lookup, debugEnvVar, "true"))
	if err != nil {
		return EnvVars{}, fmt.Errorf("%s: %w", debugEnvVar, err)
	}
	e.Debug = debug

	defaultLevel := zerolog.InfoLevel.String()
	if e.Debug {
		defaultLevel = zerolog.DebugLevel.String()
	}
	e.LogLevel = strings.ToLower(getEnv(lookup, logLevelEnvVar, defaultLevel))
	if _, err := zerolog.ParseLevel(e.LogLevel); err != nil {
		return EnvVars{}, fmt.Errorf("%s: %w", logLevelEnvVar, err)
	}

	return e, nil
}

// GetListenAddr returns host:port, all interfaces on port 80 unless overridden.
func (e EnvVars) GetListenAddr() string {
	return net.JoinHostPort(e.Host, e.Port)
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) IsDebug() bool {
	return e.Debug
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
