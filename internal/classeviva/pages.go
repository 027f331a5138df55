package classeviva

import (
	"net/url"
	"strings"

	"classeviva-tools/internal/components/telemetry"
)

// pages holds what the parsers need to turn a fetched document into domain
// values. It never performs requests so it can run on fixture documents.
type pages struct {
	markup  Markup
	appBase *url.URL
	tel     telemetry.API
}

// resolve turns a link found on an app page into an absolute url.
func (p pages) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return p.appBase.ResolveReference(ref).String(), nil
}
