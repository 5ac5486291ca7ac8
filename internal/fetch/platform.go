package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known credential hosting site.
type Platform string

const (
	// PlatformCredly is the Credly digital badge platform
	PlatformCredly Platform = "credly"
	// PlatformCoursera is the Coursera course certificate site
	PlatformCoursera Platform = "coursera"
	// PlatformAccredible is the Accredible credential platform
	PlatformAccredible Platform = "accredible"
	// PlatformUdemy is the Udemy certificate site
	PlatformUdemy Platform = "udemy"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the credential platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case hostIs(host, "credly.com"):
		return PlatformCredly
	case hostIs(host, "coursera.org"):
		return PlatformCoursera
	case hostIs(host, "accredible.com"), hostIs(host, "credential.net"):
		return PlatformAccredible
	case hostIs(host, "udemy.com"), hostIs(host, "ude.my"):
		return PlatformUdemy
	}
	return PlatformUnknown
}

func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// PlatformContentSelectors returns content selectors for a platform's credential page.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformCredly:
		return []string{
			".badge-banner",
			"[data-testid='badge-details']",
			".cr-badges-full-badge",
			"main",
		}
	case PlatformCoursera:
		return []string{
			"[data-e2e='certificate-page']",
			".rc-CertificatePage",
			"main",
		}
	case PlatformAccredible:
		return []string{
			".credential-details",
			".certificate-container",
			"main",
		}
	case PlatformUdemy:
		return []string{
			".certificate--certificate-container",
			"[data-purpose='certificate']",
			"main",
		}
	default:
		return DefaultTextSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		".social-share",
		".share-buttons",
		".social-links",
		".cookie-consent",
		".gdpr-notice",
		"form",
	}

	switch platform {
	case PlatformCredly:
		return append(common, ".cr-public-earned-badge-sidebar", ".related-badges")
	case PlatformCoursera:
		return append(common, ".rc-CourseRecommendations", ".enroll-button")
	case PlatformAccredible:
		return append(common, ".add-to-linkedin", ".wallet-buttons")
	default:
		return common
	}
}
