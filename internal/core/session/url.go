// This file parses the RTMP publish target:
// rtmp://host[:port]/app[/sub], where everything after the app path
// component is the stream path sent with publish.

package session

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Target is a parsed RTMP publish destination.
type Target struct {
	Host      string
	Port      int
	App       string
	StreamKey string
	TcURL     string
}

// ParseTarget parses rtmpURL, falling back to streamKey for the publish
// stream path when the URL itself carries only the app path component.
func ParseTarget(rawURL, streamKey string) (*Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid rtmp url: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "rtmp") {
		return nil, fmt.Errorf("session: unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("session: rtmp url missing host")
	}

	port := 1935
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("session: invalid port %q", p)
		}
	}

	path := strings.Trim(u.Path, "/")
	var app, streamPath string
	if path == "" {
		return nil, fmt.Errorf("session: rtmp url missing app path")
	}
	parts := strings.SplitN(path, "/", 2)
	app = parts[0]
	if len(parts) == 2 {
		streamPath = parts[1]
	} else {
		streamPath = streamKey
	}
	if streamPath == "" {
		return nil, fmt.Errorf("session: no stream key supplied")
	}

	return &Target{
		Host:      host,
		Port:      port,
		App:       app,
		StreamKey: streamPath,
		TcURL:     fmt.Sprintf("rtmp://%s:%d/%s", host, port, app),
	}, nil
}
