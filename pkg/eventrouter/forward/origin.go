package forward

import (
	"context"
	"fmt"
)

// Origin names the execution context an event was posted from.
type Origin uint8

const (
	// Unspecified is the origin of posts that did not declare one.
	Unspecified Origin = iota
	// Main is the router owner's own context.
	Main
	// Motion is the real-time motion control context.
	Motion
	// Sound is the audio mixing context.
	Sound
	// Simulator is the simulation host context.
	Simulator

	// NumOrigins is the number of forwarding slots.
	NumOrigins
)

var originNames = [NumOrigins]string{"unspecified", "main", "motion", "sound", "simulator"}

// String returns the origin name.
func (o Origin) String() string {
	if o < NumOrigins {
		return originNames[o]
	}
	return fmt.Sprintf("origin(%d)", uint8(o))
}

// ParseOrigin returns the origin with the given name.
func ParseOrigin(s string) (Origin, bool) {
	for i, name := range originNames {
		if name == s {
			return Origin(i), true
		}
	}
	return Unspecified, false
}

type contextKey string

const originKey contextKey = "forward_origin"

// WithOrigin returns a context marking posts as coming from o.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey, o)
}

// OriginFrom returns the origin stored in ctx, or Unspecified.
func OriginFrom(ctx context.Context) Origin {
	if ctx == nil {
		return Unspecified
	}
	if o, ok := ctx.Value(originKey).(Origin); ok {
		return o
	}
	return Unspecified
}
