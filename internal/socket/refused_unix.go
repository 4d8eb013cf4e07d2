//go:build unix

package socket

import (
	stderrors "errors"

	"golang.org/x/sys/unix"
)

func isConnectionRefused(err error) bool {
	return stderrors.Is(err, unix.ECONNREFUSED)
}
