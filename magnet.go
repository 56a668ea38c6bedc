package qbt

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ParseMagnetLink extracts the info hash, display name and tracker list
// from a magnet URI.
func ParseMagnetLink(magnetURI string) (*MagnetLink, error) {
	if !strings.HasPrefix(magnetURI, "magnet:?") {
		return nil, errors.New("invalid magnet link format")
	}

	values, err := url.ParseQuery(strings.TrimPrefix(magnetURI, "magnet:?"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse magnet link query")
	}

	link := &MagnetLink{
		DisplayName: values.Get("dn"),
		Trackers:    values["tr"],
	}

	// The exact topic is usually a urn:btih: prefixed hash.
	if xt := values.Get("xt"); xt != "" {
		link.Hash = strings.TrimPrefix(xt, "urn:btih:")
	}

	return link, nil
}
