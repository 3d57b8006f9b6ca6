package terminal

import (
	"errors"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// ErrTimeout is returned when no input arrives within the requested wait.
var ErrTimeout = errors.New("terminal: read timed out")

// byteSource yields single bytes, waiting at most timeout for each.
// A negative timeout waits indefinitely.
type byteSource interface {
	readByte(timeout time.Duration) (byte, error)
}

// fdSource reads bytes from a file descriptor using poll(2) for bounded waits.
type fdSource struct {
	fd  int
	buf [1]byte
}

func (s *fdSource) readByte(timeout time.Duration) (byte, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, ErrTimeout
		}
		break
	}

	for {
		n, err := unix.Read(s.fd, s.buf[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return s.buf[0], nil
	}
}
