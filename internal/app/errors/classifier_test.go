package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected Category
	}{
		{"unauthorized_api_key", "401 unauthorized: invalid api key", CategoryAuthInvalid},
		{"forbidden", "server returned 403 Forbidden", CategoryAuthInvalid},
		{"expired_token", "request failed: token has expired", CategoryAuthExpired},
		{"quota_exceeded", "monthly quota exceeded for this account", CategoryProviderLimit},
		{"rate_limited", "429 Too Many Requests", CategoryProviderLimit},
		{"connect_timeout", "timeout while connecting", CategoryTransientNetwork},
		{"dns_failure", "lookup api.soniox.com: no such host", CategoryTransientNetwork},
		{"tls_handshake", "TLS handshake failure", CategoryTransientNetwork},
		{"service_unavailable", "503 service unavailable", CategoryTransientProvider},
		{"bad_gateway", "upstream returned 502 Bad Gateway", CategoryTransientProvider},
		{"overloaded", "the model is currently overloaded, try again later", CategoryTransientProvider},
		{"mic_permission", "Microphone permission was denied by the user", CategoryDevicePermission},
		{"device_missing", "no such device: default input", CategoryDeviceUnavailable},
		{"bad_config", "invalid configuration: sample rate unsupported", CategoryConfigInvalid},
		{"unknown_provider", "unknown provider \"whisperx\"", CategoryConfigInvalid},
		{"unmatched", "segfault in decoder", CategoryInternalBug},
		{"empty", "", CategoryInternalBug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.message))
		})
	}
}

// Permission failures must win over the generic device category, and expired
// credentials over the generic auth category.
func TestClassify_PriorityOrder(t *testing.T) {
	assert.Equal(t, CategoryDevicePermission,
		Classify("audio device error: microphone permission denied"))
	assert.Equal(t, CategoryAuthExpired,
		Classify("401 unauthorized: token has expired"))
	assert.Equal(t, CategoryProviderLimit,
		Classify("401 account quota exhausted"))
	assert.Equal(t, CategoryTransientNetwork,
		Classify("gateway timeout while reading response"))
}

func TestIsRetryable(t *testing.T) {
	retryable := []Category{CategoryTransientNetwork, CategoryTransientProvider}
	for _, c := range retryable {
		assert.True(t, IsRetryable(c), "expected %s to be retryable", c)
	}

	permanent := []Category{
		CategoryAuthInvalid, CategoryAuthExpired, CategoryDeviceUnavailable,
		CategoryDevicePermission, CategoryConfigInvalid, CategoryProviderLimit,
		CategoryInternalBug,
	}
	for _, c := range permanent {
		assert.False(t, IsRetryable(c), "expected %s to be permanent", c)
	}
}

func TestUserMessage(t *testing.T) {
	for _, rule := range classificationRules {
		assert.NotEmpty(t, UserMessage(rule.category))
	}
	// Unknown categories fall back to the internal bug template.
	assert.Equal(t, UserMessage(CategoryInternalBug), UserMessage(Category("bogus")))
}
