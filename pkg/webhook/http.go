package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/srand/hookd/pkg/dedup"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/scheduler"
	"github.com/srand/hookd/pkg/utils"
)

// Body of a webhook request.
type Payload struct {
	Parameters map[string]string `json:"parameters"`
}

// Response to a webhook request.
type SubmitResponse struct {
	// Identifier of the created task.
	ID string `json:"id,omitempty"`

	// Set when the delivery was already received.
	Duplicate bool `json:"duplicate,omitempty"`
}

type httpHandler struct {
	registry       *Registry
	scheduler      scheduler.Scheduler
	deliveries     dedup.Store
	deliveryHeader string
}

// Register the webhook and healthcheck routes.
// The middleware, typically authentication, applies to webhook routes only.
func NewHttpHandler(
	registry *Registry,
	sched scheduler.Scheduler,
	deliveries dedup.Store,
	deliveryHeader string,
	r *echo.Echo,
	middleware ...echo.MiddlewareFunc,
) {
	if deliveries == nil {
		deliveries = dedup.NewNopStore()
	}

	h := &httpHandler{
		registry:       registry,
		scheduler:      sched,
		deliveries:     deliveries,
		deliveryHeader: deliveryHeader,
	}

	r.GET("/healthcheck", func(c echo.Context) error {
		return c.String(http.StatusOK, "Hello!")
	})

	r.GET("/:name", h.trigger, middleware...)
	r.POST("/:name", h.trigger, middleware...)
}

func (h *httpHandler) trigger(c echo.Context) error {
	name := c.Param("name")
	req := c.Request()

	if _, err := h.registry.Get(name); err != nil {
		log.Debug("nok - webhook -", err)
		return utils.HttpError(err)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return utils.HttpError(fmt.Errorf("%w: %v", utils.ErrBadRequest, err))
	}

	parameters, err := requestParameters(c, body)
	if err != nil {
		log.Debug("nok - webhook -", err)
		return utils.HttpError(err)
	}

	task, err := h.registry.NewTask(name, parameters)
	if err != nil {
		log.Debug("nok - webhook -", err)
		return utils.HttpError(err)
	}

	// Key of the recorded delivery, empty unless recorded by this request.
	recorded := ""

	if delivery := req.Header.Get(h.deliveryHeader); delivery != "" {
		key := dedup.Key(name, delivery)
		fresh, err := h.deliveries.Record(req.Context(), key, body)
		if err != nil {
			log.Warnf("err - webhook - failed to record delivery %s, accepting it: %v", delivery, err)
		} else if !fresh {
			log.Infof("dup - webhook - name: %s, delivery: %s", name, delivery)
			return c.JSON(http.StatusOK, SubmitResponse{Duplicate: true})
		} else {
			recorded = key
		}
	}

	if err := h.scheduler.Submit(task); err != nil {
		// The delivery was not queued, a retry must not be treated as a duplicate.
		if recorded != "" {
			if err := h.deliveries.Forget(context.WithoutCancel(req.Context()), recorded); err != nil {
				log.Warnf("err - webhook - failed to forget delivery %s: %v", recorded, err)
			}
		}
		return utils.HttpError(err)
	}

	return c.JSON(http.StatusOK, SubmitResponse{ID: task.Id()})
}

// Collect parameters from the query string, then from the JSON body of
// POST requests. Body parameters take precedence.
func requestParameters(c echo.Context, body []byte) (map[string]string, error) {
	parameters := map[string]string{}

	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			parameters[key] = values[len(values)-1]
		}
	}

	if c.Request().Method != http.MethodPost || len(bytes.TrimSpace(body)) == 0 {
		return parameters, nil
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %v", utils.ErrBadRequest, err)
	}

	for key, value := range payload.Parameters {
		parameters[key] = value
	}

	return parameters, nil
}
