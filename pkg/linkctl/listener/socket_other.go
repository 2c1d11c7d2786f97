//go:build js || wasip1 || plan9

package listener

import (
	"context"
	"net"
)

func listenSocket(string) (net.Listener, error) {
	return nil, ErrNotSupported
}

func socketDialer(string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(context.Context, string, string) (net.Conn, error) {
		return nil, ErrNotSupported
	}
}

func isNoInstance(error) bool {
	return false
}
