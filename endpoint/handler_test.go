package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, nil, zerolog.Nop())

	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"not found", apperr.NotFound("treatment %d not found", 7), http.StatusNotFound, "treatment 7 not found"},
		{"validation", apperr.Validation("weight_kg is required"), http.StatusBadRequest, "weight_kg is required"},
		{"forbidden", apperr.Forbidden("Access denied"), http.StatusForbidden, "Access denied"},
		{"wrapped validation", fmt.Errorf("create: %w", apperr.Validation("bad regimen")), http.StatusBadRequest, "bad regimen"},
		{"infrastructure", errors.New("connection reset"), http.StatusInternalServerError, "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp, err := doRequestWithHandler(gin.New(), requestSpec{
				method:       http.MethodGet,
				registerPath: "/probe",
				requestPath:  "/probe",
				handler: func(c *gin.Context) {
					h.respondError(c, "Probe failed", tt.err)
				},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, "Probe failed", resp["msg"])
			assert.Equal(t, tt.msg, resp["error"])
		})
	}
}

func TestParseUintParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := func(c *gin.Context) {
		id, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}

	for path, want := range map[string]int{
		"/items/12":  http.StatusOK,
		"/items/0":   http.StatusBadRequest,
		"/items/-3":  http.StatusBadRequest,
		"/items/abc": http.StatusBadRequest,
	} {
		w, _, err := doRequestWithHandler(gin.New(), requestSpec{
			method:       http.MethodGet,
			registerPath: "/items/:id",
			requestPath:  path,
			handler:      handler,
		})
		require.NoError(t, err)
		assert.Equal(t, want, w.Code, path)
	}
}
