package utils

import (
	"errors"
	"fmt"
	"net/url"
)

// A parsed listen or connect address.
type Address struct {
	// Network for net.Listen / net.Dial: "tcp", "tcp4", "tcp6" or "unix".
	Network string
	// Host and port, or socket path for unix.
	Address string
}

// Parses a string of the form <scheme>://<host>:<port> or unix://<path>.
// The port defaults to defaultPort when missing.
func ParseAddress(urlstr string, defaultPort int) (Address, error) {
	uri, err := url.Parse(urlstr)
	if err != nil {
		return Address{}, err
	}

	switch uri.Scheme {
	case "tcp", "tcp4", "tcp6":
		host := uri.Host
		if uri.Port() == "" {
			host = fmt.Sprintf("%s:%d", uri.Hostname(), defaultPort)
		}
		return Address{Network: uri.Scheme, Address: host}, nil

	case "unix":
		if uri.Path == "" {
			return Address{}, errors.New("Missing socket path: " + urlstr)
		}
		return Address{Network: "unix", Address: uri.Path}, nil

	default:
		return Address{}, errors.New("Unsupported protocol: " + uri.Scheme)
	}
}

// Returns the host:port of a tcp://host:port URL, with port 9090 by default.
func ParseGrpcUrl(urlstr string) (string, error) {
	addr, err := ParseAddress(urlstr, 9090)
	if err != nil {
		return "", err
	}
	if addr.Network == "unix" {
		return "unix://" + addr.Address, nil
	}
	return addr.Address, nil
}
