package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/tarotgarden/pkg/response"
)

func TestDeviceIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/usage", DeviceID(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxDeviceIDKey))
	})

	for _, header := range []string{"", "device-1", "0b8f7c4e-8a51-4c36-9b7e"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/usage", nil)
		if header != "" {
			req.Header.Set(DeviceIDHeader, header)
		}
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code, header)

		var payload response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		require.Equal(t, "DEVICE_ID_REQUIRED", payload.Error.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	req.Header.Set(DeviceIDHeader, " 0B8F7C4E-8A51-4C36-9B7E-3E8F6A0D1C22 ")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "0b8f7c4e-8a51-4c36-9b7e-3e8f6a0d1c22", w.Body.String())
}
