// Package endpoint computes the per-user address of the backend debug pipe.
package endpoint

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
)

// ErrIdentityUnavailable means the current OS user could not be determined,
// so no address can be computed.
var ErrIdentityUnavailable = errors.New("user identity unavailable")

// lookupUser returns the current account name. Replaced in tests.
var lookupUser = func() (string, error) {
	u, err := user.Current()
	if err == nil && u.Username != "" {
		return u.Username, nil
	}
	for _, key := range []string{"USERNAME", "USER"} {
		if name := os.Getenv(key); name != "" {
			return name, nil
		}
	}
	if err == nil {
		err = errors.New("empty user name")
	}
	return "", err
}

// Resolve returns the debug pipe address for the current OS user.
func Resolve() (string, error) {
	name, err := lookupUser()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return ForUser(name)
}

// ForUser returns the debug pipe address for the given account name.
// A DOMAIN\user name is reduced to its user part.
func ForUser(name string) (string, error) {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrIdentityUnavailable
	}
	return address(name), nil
}
