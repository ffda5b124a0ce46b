package network

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

// DialPipe opens a Windows named pipe such as \\.\pipe\user\PIME\Debug.
func DialPipe(ctx context.Context, address string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, address)
}
