package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
	"github.com/charlesng35/tarotgarden/pkg/validator"
)

const (
	CtxDeviceIDKey = "deviceID"

	// DeviceIDHeader carries the install-scoped id the client generates on first launch.
	DeviceIDHeader = "X-Device-ID"
)

// ErrDeviceIDRequired is returned when the device header is missing or malformed.
var ErrDeviceIDRequired = errors.New("DEVICE_ID_REQUIRED", "A valid X-Device-ID header is required", http.StatusBadRequest)

// DeviceID requires a UUID device id header and stores it in the context.
func DeviceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.ToLower(strings.TrimSpace(c.GetHeader(DeviceIDHeader)))
		if err := validator.ValidateVar("device_id", id, "required,uuid"); err != nil {
			response.Error(c, ErrDeviceIDRequired)
			c.Abort()
			return
		}
		c.Set(CtxDeviceIDKey, id)
		c.Next()
	}
}
