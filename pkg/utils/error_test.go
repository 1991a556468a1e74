package utils

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHttpError(t *testing.T) {
	testData := []struct {
		err  error
		code int
	}{
		{ErrBadRequest, http.StatusBadRequest},
		{fmt.Errorf("%w: unknown parameter", ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: webhook", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrStopped, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, data := range testData {
		assert.Equal(t, data.code, HttpError(data.err).Code, data.err.Error())
	}
}
