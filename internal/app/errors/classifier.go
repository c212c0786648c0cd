package errors

import "strings"

// Category is the machine-readable classification of a provider or device
// failure message.
type Category string

const (
	CategoryTransientNetwork  Category = "transient_network"
	CategoryTransientProvider Category = "transient_provider"
	CategoryAuthInvalid       Category = "auth_invalid"
	CategoryAuthExpired       Category = "auth_expired"
	CategoryDeviceUnavailable Category = "device_unavailable"
	CategoryDevicePermission  Category = "device_permission"
	CategoryConfigInvalid     Category = "config_invalid"
	CategoryProviderLimit     Category = "provider_limit"
	CategoryInternalBug       Category = "internal_bug"
)

// classificationRule maps case-folded substrings to a category. Rules are
// evaluated in order and the first match wins, so specific categories
// (expired tokens, quota limits, device permissions, network timeouts) must
// stay ahead of their generic counterparts.
type classificationRule struct {
	category Category
	patterns []string
}

var classificationRules = []classificationRule{
	{CategoryAuthExpired, []string{
		"token expired", "token has expired", "key expired", "credentials expired",
		"session expired", "authorization expired",
	}},
	{CategoryProviderLimit, []string{
		"quota", "rate limit", "too many requests", "429", "limit exceeded",
		"insufficient credits", "usage limit", "payment required",
	}},
	{CategoryAuthInvalid, []string{
		"unauthorized", "401", "forbidden", "403", "invalid api key",
		"invalid credentials", "authentication failed", "api key not valid",
		"access denied",
	}},
	{CategoryDevicePermission, []string{
		"microphone permission", "permission denied", "not permitted",
		"operation not permitted",
	}},
	{CategoryDeviceUnavailable, []string{
		"no such device", "device not found", "no input device", "device busy",
		"audio device", "device disconnected",
	}},
	{CategoryConfigInvalid, []string{
		"invalid configuration", "missing configuration", "config invalid",
		"unsupported language", "unsupported format", "invalid model",
		"unknown provider",
	}},
	{CategoryTransientNetwork, []string{
		"timeout", "timed out", "connection refused", "connection reset",
		"no such host", "dns", "handshake", "network is unreachable",
		"broken pipe", "unexpected eof", "tls",
	}},
	{CategoryTransientProvider, []string{
		"500", "502", "503", "504", "service unavailable", "bad gateway",
		"internal server error", "gateway timeout", "overloaded",
		"temporarily unavailable", "try again later",
	}},
}

var userMessages = map[Category]string{
	CategoryTransientNetwork:  "A network problem interrupted the transcription. It will be retried automatically.",
	CategoryTransientProvider: "The transcription service is temporarily unavailable. The job will be retried automatically.",
	CategoryAuthInvalid:       "The API key for this provider was rejected. Check your credentials in settings.",
	CategoryAuthExpired:       "The API key for this provider has expired. Renew it in settings.",
	CategoryDeviceUnavailable: "The audio device is not available. Reconnect it and try again.",
	CategoryDevicePermission:  "Microphone access is not permitted. Grant the permission and try again.",
	CategoryConfigInvalid:     "The provider configuration is invalid. Review the settings and try again.",
	CategoryProviderLimit:     "The provider's usage limit was reached. Wait for the quota to reset or upgrade your plan.",
	CategoryInternalBug:       "An unexpected error occurred. Please report this problem.",
}

// Classify maps a free-text failure message to a Category. Matching is
// case-insensitive substring matching in fixed priority order; a message that
// matches nothing is an internal bug.
func Classify(message string) Category {
	folded := strings.ToLower(message)
	for _, rule := range classificationRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(folded, pattern) {
				return rule.category
			}
		}
	}
	return CategoryInternalBug
}

// IsRetryable reports whether a category is expected to self-heal. Auth,
// quota, device and configuration failures are never auto-retried because
// retrying cannot fix them.
func IsRetryable(category Category) bool {
	return category == CategoryTransientNetwork || category == CategoryTransientProvider
}

// UserMessage returns the human-readable template for a category.
func UserMessage(category Category) string {
	if msg, ok := userMessages[category]; ok {
		return msg
	}
	return userMessages[CategoryInternalBug]
}
