package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://www.credly.com/badges/1f6c3c0e-7a3b", PlatformCredly},
		{"https://credly.com/badges/abc", PlatformCredly},
		{"https://www.coursera.org/account/accomplishments/verify/ABC123", PlatformCoursera},
		{"https://www.credential.net/5c2a", PlatformAccredible},
		{"https://certificates.accredible.com/123", PlatformAccredible},
		{"https://www.udemy.com/certificate/UC-123/", PlatformUdemy},
		{"https://notcredly.com/badges/abc", PlatformUnknown},
		{"https://example.com/cert.png", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformContentSelectors(t *testing.T) {
	for _, p := range []Platform{PlatformCredly, PlatformCoursera, PlatformAccredible, PlatformUdemy} {
		selectors := PlatformContentSelectors(p)
		assert.NotEmpty(t, selectors, p)
		assert.Equal(t, "main", selectors[len(selectors)-1], p)
	}
	assert.Equal(t, DefaultTextSelectors(), PlatformContentSelectors(PlatformUnknown))
}

func TestPlatformNoiseSelectors(t *testing.T) {
	common := PlatformNoiseSelectors(PlatformUnknown)
	assert.Contains(t, common, ".social-share")

	credly := PlatformNoiseSelectors(PlatformCredly)
	assert.Contains(t, credly, ".related-badges")
	assert.Greater(t, len(credly), len(common))
}
