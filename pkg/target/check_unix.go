//go:build unix

package target

import (
	"errors"

	"golang.org/x/sys/unix"
)

func checkWritable(fd int) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if errors.Is(err, unix.EBADF) {
		return ErrNotOpen
	}
	if err != nil {
		return err
	}
	if flags&(unix.O_WRONLY|unix.O_RDWR) == 0 {
		return ErrNotWritable
	}
	return nil
}
