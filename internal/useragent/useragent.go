// Package useragent classifies user-agent strings into the coarse platform
// buckets the resolver needs for deep-link selection and click metadata.
package useragent

import "strings"

const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

const (
	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"
	BrowserSafari  = "safari"
	BrowserEdge    = "edge"
	BrowserUnknown = "unknown"
)

const (
	OSIOS     = "ios"
	OSAndroid = "android"
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSLinux   = "linux"
	OSUnknown = "unknown"
)

// Info is the classification of a single user-agent string.
type Info struct {
	IsIOS      bool
	IsAndroid  bool
	DeviceType string
	Browser    string
	OS         string
}

// Classify maps a user-agent string to an Info. It is pure and total:
// unrecognized input classifies as desktop/unknown.
func Classify(userAgent string) Info {
	ua := strings.ToLower(userAgent)

	isIOS := strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "ipad") ||
		strings.Contains(ua, "ipod")
	isAndroid := strings.Contains(ua, "android")

	return Info{
		IsIOS:      isIOS,
		IsAndroid:  isAndroid,
		DeviceType: deviceType(ua, isAndroid),
		Browser:    browser(ua),
		OS:         operatingSystem(ua, isIOS, isAndroid),
	}
}

func deviceType(ua string, isAndroid bool) string {
	// Android tablets carry the Android token without "mobile".
	if strings.Contains(ua, "ipad") || (isAndroid && !strings.Contains(ua, "mobile")) {
		return DeviceTablet
	}

	if strings.Contains(ua, "mobile") ||
		strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "ipod") {
		return DeviceMobile
	}

	return DeviceDesktop
}

// browser matches by substring in a fixed precedence order. Edge comes
// first because Edge UAs also carry "chrome" and "safari" tokens, and
// Chrome before Safari because Chrome UAs carry "safari".
func browser(ua string) string {
	switch {
	case strings.Contains(ua, "edg"):
		return BrowserEdge
	case strings.Contains(ua, "chrome"):
		return BrowserChrome
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "safari"):
		return BrowserSafari
	default:
		return BrowserUnknown
	}
}

func operatingSystem(ua string, isIOS, isAndroid bool) string {
	switch {
	case isIOS:
		return OSIOS
	case isAndroid:
		return OSAndroid
	case strings.Contains(ua, "windows"):
		return OSWindows
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		return OSMacOS
	case strings.Contains(ua, "linux"):
		return OSLinux
	default:
		return OSUnknown
	}
}
