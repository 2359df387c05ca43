package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxPlatformKey    = "platform"
	CtxNativeShellKey = "nativeShell"

	// NativeShellToken is appended to the user agent by the mobile app's web view.
	NativeShellToken = "TarotGardenApp"
)

// Platform values.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// DetectPlatform classifies a user agent and reports whether it comes from the native shell.
func DetectPlatform(userAgent string) (platform string, native bool) {
	native = strings.Contains(userAgent, NativeShellToken)

	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		return PlatformIOS, native
	case strings.Contains(ua, "android"):
		return PlatformAndroid, native
	default:
		return PlatformWeb, native
	}
}

// Platform stores the caller's platform in the context.
func Platform() gin.HandlerFunc {
	return func(c *gin.Context) {
		platform, native := DetectPlatform(c.Request.UserAgent())
		c.Set(CtxPlatformKey, platform)
		c.Set(CtxNativeShellKey, native)
		c.Next()
	}
}
