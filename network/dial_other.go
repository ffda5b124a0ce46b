//go:build !windows

package network

import (
	"context"
	"net"
)

// DialPipe opens the unix domain socket at address.
func DialPipe(ctx context.Context, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", address)
}
