package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/srand/hookd/pkg/auth"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// HTTP client that authenticates requests the way the server expects.
type Client struct {
	config ControlConfig
	http   *http.Client
}

func NewClient(config ControlConfig) *Client {
	return &Client{config: config, http: &http.Client{}}
}

// Builds a request for a path relative to the server URL.
// The body is signed when a secret is configured.
func (c *Client) NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	url := strings.TrimRight(c.config.Url, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.config.Secret != "" {
		req.Header.Set(c.config.SignatureHeader, auth.Sign(c.config.Secret, body))
	}

	if c.config.BasicAuth.User != "" {
		req.SetBasicAuth(c.config.BasicAuth.User, c.config.BasicAuth.Password)
	}

	return req, nil
}

// Sends a request and fails unless the server responds with 2xx.
// The caller closes the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	response, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		message, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return nil, fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, response.Status, strings.TrimSpace(string(message)))
	}

	return response, nil
}

func NewHealthConn() *grpc.ClientConn {
	opts := grpc.WithTransportCredentials(insecure.NewCredentials())

	grpcHost, err := utils.ParseGrpcUrl(configData.GrpcUrl)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := grpc.NewClient(grpcHost, opts)
	if err != nil {
		log.Fatal(err)
	}

	return conn
}

func DefaultDeadlineContext() (context.Context, func()) {
	return context.WithDeadline(context.Background(), time.Now().Add(time.Second*30))
}
