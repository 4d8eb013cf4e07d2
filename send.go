package procsup

import (
	"context"

	"github.com/wagiedev/procsup-go/internal/socket"
)

// Send performs a single line exchange with a TCP server at host:port
// without supervising any process: connect, write message plus newline,
// read one reply line, close.
//
// Connect timeout, read timeout, and logger are taken from opts.
// Errors are *ConnectionRefusedError, *ConnectTimeoutError, or
// *ProtocolError.
func Send(ctx context.Context, host string, port int, message string, opts ...Option) (string, error) {
	options := applyOptions(opts)

	return socket.Send(ctx, host, port, message, options.SocketOptions()...)
}
