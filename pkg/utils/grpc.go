package utils

import (
	"time"

	"github.com/srand/hookd/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

type GRPCOptions struct {
	// The interval between PING frames.
	KeepAliveTime *time.Duration `mapstructure:"keep_alive_time" yaml:"keep_alive_time,omitempty"`
	// The timeout for a PING frame to be acknowledged.
	KeepAliveTimeout *time.Duration `mapstructure:"keep_alive_timeout" yaml:"keep_alive_timeout,omitempty"`
	// Are clients allowed to send keepalive pings without active streams.
	PermitKeepAliveWithoutCalls *bool `mapstructure:"permit_keep_alive_without_calls" yaml:"permit_keep_alive_without_calls,omitempty"`
	// Minimum allowed time between successive pings from a client.
	PermitKeepAliveTime *time.Duration `mapstructure:"permit_keep_alive_time" yaml:"permit_keep_alive_time,omitempty"`
}

func (o *GRPCOptions) ToServerOptions() []grpc.ServerOption {
	opts := []grpc.ServerOption{}

	if o.KeepAliveTime != nil || o.KeepAliveTimeout != nil {
		params := keepalive.ServerParameters{}
		if o.KeepAliveTime != nil {
			params.Time = *o.KeepAliveTime
		}
		if o.KeepAliveTimeout != nil {
			params.Timeout = *o.KeepAliveTimeout
		}
		opts = append(opts, grpc.KeepaliveParams(params))
	}

	if o.PermitKeepAliveWithoutCalls != nil || o.PermitKeepAliveTime != nil {
		policy := keepalive.EnforcementPolicy{}
		if o.PermitKeepAliveWithoutCalls != nil {
			policy.PermitWithoutStream = *o.PermitKeepAliveWithoutCalls
		}
		if o.PermitKeepAliveTime != nil {
			policy.MinTime = *o.PermitKeepAliveTime
		}
		opts = append(opts, grpc.KeepaliveEnforcementPolicy(policy))
	}

	return opts
}

func (o *GRPCOptions) Log() {
	if o.KeepAliveTime != nil {
		log.Info("  grpc.keep_alive_time =", *o.KeepAliveTime)
	}
	if o.KeepAliveTimeout != nil {
		log.Info("  grpc.keep_alive_timeout =", *o.KeepAliveTimeout)
	}
	if o.PermitKeepAliveWithoutCalls != nil {
		log.Info("  grpc.permit_keep_alive_without_calls =", *o.PermitKeepAliveWithoutCalls)
	}
	if o.PermitKeepAliveTime != nil {
		log.Info("  grpc.permit_keep_alive_time =", *o.PermitKeepAliveTime)
	}
}
