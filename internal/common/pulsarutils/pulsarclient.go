package pulsarutils

import (
	"strings"

	"github.com/apache/pulsar-client-go/pulsar"
	pulsarlog "github.com/apache/pulsar-client-go/pulsar/log"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	commonconfig "github.com/jobartifacts/artifactingester/internal/common/config"
	"github.com/jobartifacts/artifactingester/internal/common/ingesterrors"
)

// NewPulsarClient connects to the broker at config.URL. Client logs go through logrus.
func NewPulsarClient(config *commonconfig.PulsarConfig) (pulsar.Client, error) {
	options, err := clientOptions(config)
	if err != nil {
		return nil, err
	}
	client, err := pulsar.NewClient(options)
	return client, errors.WithStack(err)
}

func clientOptions(config *commonconfig.PulsarConfig) (pulsar.ClientOptions, error) {
	options := pulsar.ClientOptions{
		URL:                        config.URL,
		TLSTrustCertsFilePath:      config.TLSTrustCertsFilePath,
		TLSValidateHostname:        config.TLSValidateHostname,
		TLSAllowInsecureConnection: config.TLSAllowInsecureConnection,
		MaxConnectionsPerBroker:    config.MaxConnectionsPerBroker,
		Logger:                     pulsarlog.NewLoggerWithLogrus(logrus.StandardLogger()),
	}
	if !config.AuthenticationEnabled {
		return options, nil
	}
	auth, err := authentication(config)
	if err != nil {
		return pulsar.ClientOptions{}, err
	}
	options.Authentication = auth
	return options, nil
}

// Only JWT tokens read from a file are supported.
func authentication(config *commonconfig.PulsarConfig) (pulsar.Authentication, error) {
	switch {
	case !strings.EqualFold(config.AuthenticationType, "jwt"):
		return nil, errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    "pulsar.AuthenticationType",
			Value:   config.AuthenticationType,
			Message: "only JWT authentication is supported",
		})
	case strings.TrimSpace(config.JwtTokenPath) == "":
		return nil, errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    "pulsar.JwtTokenPath",
			Value:   config.JwtTokenPath,
			Message: "JWT authentication requires a token path",
		})
	}
	return pulsar.NewAuthenticationTokenFromFile(config.JwtTokenPath), nil
}
