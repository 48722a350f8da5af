package util

import (
	"fmt"
	"sync/atomic"
)

// Stats counts chat traffic over one session's data channel.
// Safe for concurrent use.
type Stats struct {
	MessagesSent atomic.Int64
	MessagesRecv atomic.Int64
	BytesSent    atomic.Int64 // payload bytes written to the DataChannel
	BytesRecv    atomic.Int64 // payload bytes read from the DataChannel
}

func (s *Stats) AddSent(n int) {
	s.MessagesSent.Add(1)
	s.BytesSent.Add(int64(n))
}

func (s *Stats) AddRecv(n int) {
	s.MessagesRecv.Add(1)
	s.BytesRecv.Add(int64(n))
}

// Summary formats the counters for a single log line.
func (s *Stats) Summary() string {
	return fmt.Sprintf("Sent: %d msg (%s) | Recv: %d msg (%s)",
		s.MessagesSent.Load(),
		formatBytes(float64(s.BytesSent.Load())),
		s.MessagesRecv.Load(),
		formatBytes(float64(s.BytesRecv.Load())),
	)
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}
