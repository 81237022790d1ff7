package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/registry"
)

// Generator identifies the kind of origin of an event.
type Generator uint8

// Built-in generators.
const (
	Unknown Generator = iota
	AI
	Audio
	Button
	CameraResolution
	// Router events announce subscription changes. The source is the
	// generator whose subscriber set changed.
	Router
	EStop
	Grasper
	Locomotion
	Lookout
	MapBuilder
	MicSound
	MicPitch
	MoCap
	MotionManager
	Pilot
	Power
	RemoteState
	Runtime
	Sensor
	Servo
	StateMachine
	StateSignal
	StateTransition
	TextMsg
	Timer
	User
	VisionObject
	VisionRaw
	VisionSegment
	WorldModel
	WatchedMemory

	numBuiltinGenerators
)

// FirstCustomGenerator is the lowest generator value available to
// applications through RegisterGenerator.
const FirstCustomGenerator Generator = 64

var builtinNames = [numBuiltinGenerators]string{
	Unknown:          "unknown",
	AI:               "ai",
	Audio:            "audio",
	Button:           "button",
	CameraResolution: "cameraResolution",
	Router:           "router",
	EStop:            "estop",
	Grasper:          "grasper",
	Locomotion:       "locomotion",
	Lookout:          "lookout",
	MapBuilder:       "mapbuilder",
	MicSound:         "micSound",
	MicPitch:         "micPitch",
	MoCap:            "mocap",
	MotionManager:    "motman",
	Pilot:            "pilot",
	Power:            "power",
	RemoteState:      "remoteState",
	Runtime:          "runtime",
	Sensor:           "sensor",
	Servo:            "servo",
	StateMachine:     "stateMachine",
	StateSignal:      "stateSignal",
	StateTransition:  "stateTransition",
	TextMsg:          "textmsg",
	Timer:            "timer",
	User:             "user",
	VisionObject:     "visObj",
	VisionRaw:        "visRaw",
	VisionSegment:    "visSegment",
	WorldModel:       "worldModel",
	WatchedMemory:    "wmVar",
}

var customNames = registry.New[Generator, string]()

// Errors returned by RegisterGenerator.
var (
	ErrReservedGenerator = errors.New("generator value is reserved for built-ins")
	ErrGeneratorNameUsed = errors.New("generator name already in use")
	ErrGeneratorTaken    = errors.New("generator value already named")
)

// RegisterGenerator names a custom generator.
// g must be at least FirstCustomGenerator and name must be unique.
func RegisterGenerator(g Generator, name string) error {
	if g < FirstCustomGenerator {
		return fmt.Errorf("register %q as %d: %w", name, g, ErrReservedGenerator)
	}
	if name == "" || strings.ContainsAny(name, "(), ") {
		return fmt.Errorf("register generator %d: invalid name %q", g, name)
	}
	if _, ok := ParseGenerator(name); ok {
		return fmt.Errorf("register %q as %d: %w", name, g, ErrGeneratorNameUsed)
	}
	if !customNames.Claim(g, name) {
		return fmt.Errorf("register %q as %d: %w", name, g, ErrGeneratorTaken)
	}
	return nil
}

// UnregisterGenerator forgets the name of a custom generator.
func UnregisterGenerator(g Generator) {
	if g >= FirstCustomGenerator {
		customNames.Delete(g)
	}
}

// IsBuiltin reports whether g is one of the predefined generators.
func (g Generator) IsBuiltin() bool {
	return g < numBuiltinGenerators
}

// String returns the generator's name. Unnamed values render as
// "generator(N)", which ParseGenerator accepts.
func (g Generator) String() string {
	if g.IsBuiltin() {
		return builtinNames[g]
	}
	if name, ok := customNames.Get(g); ok {
		return name
	}
	return fmt.Sprintf("generator(%d)", uint8(g))
}

// ParseGenerator returns the generator with the given name.
func ParseGenerator(name string) (Generator, bool) {
	for g, n := range builtinNames {
		if n == name {
			return Generator(g), true
		}
	}
	if g, ok := customNames.Find(func(_ Generator, n string) bool { return n == name }); ok {
		return g, true
	}
	var n uint8
	if _, err := fmt.Sscanf(name, "generator(%d)", &n); err == nil && name == fmt.Sprintf("generator(%d)", n) {
		return Generator(n), true
	}
	return Unknown, false
}

// Type is the phase of an occurrence.
type Type uint8

const (
	// Activate marks the start of something, such as a button press.
	Activate Type = iota
	// Status reports a change or an ongoing state without a start or end.
	Status
	// Deactivate marks the end of something, such as a button release.
	Deactivate

	// NumTypes is the number of event types.
	NumTypes
)

var typeNames = [NumTypes]string{"activate", "status", "deactivate"}
var typeAbbrs = [NumTypes]string{"A", "S", "D"}

// String returns the type's name.
func (t Type) String() string {
	if t < NumTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Abbr returns the single letter abbreviation used in event names.
func (t Type) Abbr() string {
	if t < NumTypes {
		return typeAbbrs[t]
	}
	return "?"
}

// Valid reports whether t is a defined type.
func (t Type) Valid() bool {
	return t < NumTypes
}

// ParseType returns the type with the given name or abbreviation.
func ParseType(s string) (Type, bool) {
	for i := Type(0); i < NumTypes; i++ {
		if s == typeNames[i] || s == typeAbbrs[i] {
			return i, true
		}
	}
	return 0, false
}
