package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGRPCServerOptions(t *testing.T) {
	opts := &GRPCOptions{}
	assert.Empty(t, opts.ToServerOptions())

	keepAlive := 30 * time.Second
	permit := true
	opts = &GRPCOptions{KeepAliveTime: &keepAlive}
	assert.Len(t, opts.ToServerOptions(), 1)

	opts.PermitKeepAliveWithoutCalls = &permit
	assert.Len(t, opts.ToServerOptions(), 2)
}
