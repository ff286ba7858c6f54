// Package relay copies a byte stream to two outputs chunk by chunk.
package relay

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// ChunkSize is the most bytes read from the input in one call.
const ChunkSize = 8192

// WritePolicy decides what a failed write does to the relay loop.
type WritePolicy int

const (
	// BestEffort counts and logs write failures but keeps relaying.
	BestEffort WritePolicy = iota
	// StopOnWriteError stops after the chunk whose write failed.
	// Both outputs are still offered that chunk.
	StopOnWriteError
)

func (p WritePolicy) String() string {
	switch p {
	case BestEffort:
		return "best-effort"
	case StopOnWriteError:
		return "stop-on-write-error"
	}
	return fmt.Sprintf("WritePolicy(%d)", int(p))
}

// Output names used in WriteError and log fields.
const (
	Primary   = "primary"
	Secondary = "secondary"
)

// ReadError is returned when the input fails for a reason other than EOF.
type ReadError struct {
	Offset int64 // Bytes relayed before the failing read
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read input at offset %d: %s", e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is returned under StopOnWriteError when an output rejects a chunk.
type WriteError struct {
	Output string
	Offset int64 // Input offset of the first byte of the chunk
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s output at offset %d: %s", e.Output, e.Offset, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Stats describes how much a Copy call relayed.
type Stats struct {
	Bytes           int64
	Chunks          int
	PrimaryBytes    int64
	SecondaryBytes  int64
	PrimaryErrors   int
	SecondaryErrors int
}

// Relay duplicates its input. The zero value is ready to use with BestEffort
// policy and no logging. A Relay must not be used by two goroutines at once.
type Relay struct {
	Policy WritePolicy
	Log    logrus.FieldLogger

	buf [ChunkSize]byte
}

var discardLogger = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

func (r *Relay) logger() logrus.FieldLogger {
	if r.Log == nil {
		return discardLogger
	}
	return r.Log
}

// Copy reads in until EOF and writes every chunk to primary and then to
// secondary before reading again. A read that returns no bytes and no error
// is treated as end of input.
func (r *Relay) Copy(in io.Reader, primary, secondary io.Writer) (Stats, error) {
	var stats Stats
	log := r.logger()

	for {
		n, err := in.Read(r.buf[:])
		if n > 0 {
			werr := r.relayChunk(log, &stats, r.buf[:n], primary, secondary)
			if werr != nil && r.Policy == StopOnWriteError {
				return stats, werr
			}
		}
		if (n == 0 && err == nil) || errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			log.WithField("offset", stats.Bytes).Errorf("Input read failed: %s", err)
			return stats, &ReadError{Offset: stats.Bytes, Err: err}
		}
	}
}

func (r *Relay) relayChunk(log logrus.FieldLogger, stats *Stats, chunk []byte,
	primary, secondary io.Writer) error {
	offset := stats.Bytes
	stats.Bytes += int64(len(chunk))
	stats.Chunks++

	entry := log.WithFields(logrus.Fields{"offset": offset, "size": len(chunk)})
	entry.Debug("Relaying chunk")
	if traceEnabled(log) {
		entry.Tracef("Chunk contents:\n%s", HexDump(offset, chunk))
	}

	var err error
	n, perr := primary.Write(chunk)
	stats.PrimaryBytes += int64(n)
	if perr != nil {
		stats.PrimaryErrors++
		logWriteFailure(entry, Primary, stats.PrimaryErrors, perr)
		err = multierr.Append(err, &WriteError{Output: Primary, Offset: offset, Err: perr})
	}

	n, serr := secondary.Write(chunk)
	stats.SecondaryBytes += int64(n)
	if serr != nil {
		stats.SecondaryErrors++
		logWriteFailure(entry, Secondary, stats.SecondaryErrors, serr)
		err = multierr.Append(err, &WriteError{Output: Secondary, Offset: offset, Err: serr})
	}
	return err
}

func traceEnabled(log logrus.FieldLogger) bool {
	switch l := log.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.TraceLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.TraceLevel)
	}
	return false
}

// The first failure of an output is a warning, repeats are debug.
func logWriteFailure(entry logrus.FieldLogger, output string, count int, err error) {
	entry = entry.WithField("output", output)
	if count == 1 {
		entry.Warnf("Write failed: %s", err)
	} else {
		entry.Debugf("Write failed: %s", err)
	}
}

// ExitCode maps the result of Copy to a process exit status.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

// Run copies in to both outputs with a default Relay and returns the exit
// status: 0 after a clean end of input, 1 after a read failure.
func Run(in io.Reader, primary, secondary io.Writer) int {
	var r Relay
	_, err := r.Copy(in, primary, secondary)
	return ExitCode(err)
}
