//go:build windows

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// reuseAddrControl sets SO_REUSEADDR on the multicast socket before it
// binds. Windows has no SO_REUSEPORT; its SO_REUSEADDR already allows
// multiple processes to share the port, which is what lets this resolver
// coexist with another mDNS listener on 5353.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockoptErr error
	err := c.Control(func(fd uintptr) {
		if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
			sockoptErr = fmt.Errorf("set SO_REUSEADDR: %w", err)
		}
	})
	if err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}
	return sockoptErr
}
