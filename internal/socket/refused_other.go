//go:build !unix

package socket

import (
	stderrors "errors"
	"syscall"
)

func isConnectionRefused(err error) bool {
	return stderrors.Is(err, syscall.ECONNREFUSED)
}
