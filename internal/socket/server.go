package socket

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// Handler computes the reply for one received line. The line is passed
// without its trailing newline; the reply gets one appended if missing.
type Handler func(line string) string

// Serve accepts connections on ln and answers one line per connection
// until ctx is cancelled. It closes ln before returning and waits for
// in-flight connections to finish.
func Serve(ctx context.Context, log *slog.Logger, ln net.Listener, handler Handler) error {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	log = log.With("component", "socket_server", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	log.Info("Serving line protocol")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				log.Info("Server stopped")

				return nil
			}

			return err
		}

		wg.Go(func() {
			serveConn(ctx, log, conn, handler)
		})
	}
}

// serveConn handles exactly one request line on conn.
func serveConn(ctx context.Context, log *slog.Logger, conn net.Conn, handler Handler) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !stderrors.Is(err, io.EOF) {
		log.Debug("Read failed", "remote", conn.RemoteAddr().String(), "error", err)

		return
	}

	if line == "" {
		return
	}

	reply := handler(strings.TrimRight(line, "\r\n"))
	if !strings.HasSuffix(reply, "\n") {
		reply += "\n"
	}

	if _, err := io.WriteString(conn, reply); err != nil {
		log.Debug("Write failed", "remote", conn.RemoteAddr().String(), "error", err)
	}
}
