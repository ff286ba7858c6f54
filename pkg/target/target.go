// Package target resolves where the second copy of the input goes.
package target

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

var (
	ErrInvalidDescriptor = errors.New("not a file descriptor number")
	ErrNotOpen           = errors.New("file descriptor is not open")
	ErrNotWritable       = errors.New("file descriptor is not open for writing")
)

const stderrFD = 2

// Descriptor names an output descriptor the process inherited from its
// parent. It can only be obtained from ParseDescriptor.
type Descriptor struct {
	fd int
}

// ParseDescriptor accepts a non-negative decimal number made of ASCII digits
// only. Signs, blanks and anything past the int range are rejected.
func ParseDescriptor(s string) (Descriptor, error) {
	if s == "" {
		return Descriptor{}, fmt.Errorf("%q: %w", s, ErrInvalidDescriptor)
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return Descriptor{}, fmt.Errorf("%q: %w", s, ErrInvalidDescriptor)
		}
		d := int(c - '0')
		if n > (math.MaxInt32-d)/10 {
			return Descriptor{}, fmt.Errorf("%q: %w", s, ErrInvalidDescriptor)
		}
		n = n*10 + d
	}
	return Descriptor{fd: n}, nil
}

func (d Descriptor) String() string {
	return "fd " + strconv.Itoa(d.fd)
}

// Open wraps the descriptor in an *os.File after checking that the process
// holds it open for writing. The caller owns the returned file.
func (d Descriptor) Open() (*os.File, error) {
	if err := checkWritable(d.fd); err != nil {
		return nil, fmt.Errorf("%s: %w", d, err)
	}
	f := os.NewFile(uintptr(d.fd), d.String())
	if f == nil {
		return nil, fmt.Errorf("%s: %w", d, ErrNotOpen)
	}
	return f, nil
}

// Target is a resolved secondary output.
type Target struct {
	Name   string
	Writer io.Writer
}

// Resolve picks the secondary output from the command line arguments.
// Without an argument, or with descriptor 2, it is stderr.
func Resolve(args []string, stderr io.Writer) (Target, error) {
	switch len(args) {
	case 0:
		return Target{Name: "stderr", Writer: stderr}, nil
	case 1:
	default:
		return Target{}, fmt.Errorf("expected at most one descriptor, got %d arguments", len(args))
	}

	d, err := ParseDescriptor(args[0])
	if err != nil {
		return Target{}, err
	}
	if d.fd == stderrFD {
		return Target{Name: "stderr", Writer: stderr}, nil
	}
	f, err := d.Open()
	if err != nil {
		return Target{}, err
	}
	return Target{Name: d.String(), Writer: f}, nil
}
