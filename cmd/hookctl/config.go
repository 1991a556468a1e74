package main

import (
	"github.com/spf13/viper"
	"github.com/srand/hookd/pkg/auth"
	"github.com/srand/hookd/pkg/utils"
)

type ControlConfig struct {
	// Request credentials, as configured on the server.
	auth.Config `mapstructure:",squash"`

	// Base URL of the HTTP API.
	Url string `mapstructure:"url"`

	// Address of the gRPC health service.
	GrpcUrl string `mapstructure:"grpc_url"`
}

func ParseConfig(v *viper.Viper) (*ControlConfig, error) {
	config := &ControlConfig{}
	if err := utils.UnmarshalConfig(v, config); err != nil {
		return nil, err
	}
	config.SetDefaults()
	return config, nil
}
