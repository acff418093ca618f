package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SiteHostname extracts the host name of the public site address. A missing
// scheme is assumed to be https.
func SiteHostname(site string) (string, error) {
	site = strings.TrimSpace(site)
	if len(site) < 1 {
		return "", errors.New("The site address is empty.")
	}

	if !strings.Contains(site, "://") {
		site = "https://" + site
	}

	u, err := url.Parse(site)
	if err != nil {
		return "", fmt.Errorf("Could not parse site address: %w", err)
	}

	if len(u.Hostname()) < 1 {
		return "", fmt.Errorf("The site address has no host: %s", site)
	}

	return strings.ToLower(u.Hostname()), nil
}

// RegistrableDomain returns the domain cookies can be shared on, e.g.
// alternanceetmoi.fr for reports.alternanceetmoi.fr. Local hosts and IP
// addresses have none.
func RegistrableDomain(site string) string {
	h, err := SiteHostname(site)
	if err != nil || h == "localhost" || net.ParseIP(h) != nil {
		return ""
	}

	d, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		return ""
	}

	return d
}
