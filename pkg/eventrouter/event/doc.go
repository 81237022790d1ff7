// Package event defines the immutable event record distributed by the router.
//
// An Event identifies what happened with three coordinates:
//   - Generator: the kind of origin (a button, the timer facility, vision)
//   - Source: a generator-specific discriminator (which button, which timer)
//   - Type: the phase of the occurrence (Activate, Status, Deactivate)
//
// plus a timestamp, a duration, an optional name and a numeric magnitude.
//
//	evt := event.New(event.Button, 3, event.Activate, event.WithMagnitude(0.8))
//	fmt.Println(evt) // (button,3,A)
//
// Events are values. Accessors never expose mutable state, and the With*
// methods return modified copies, so an event can be queued, relayed or
// shared between goroutines without synchronization.
//
// # Generators
//
// The built-in generators cover the usual robot facilities. Applications can
// name their own generators in the range starting at FirstCustomGenerator:
//
//	const Gripper event.Generator = event.FirstCustomGenerator
//
//	func init() {
//	    if err := event.RegisterGenerator(Gripper, "gripper"); err != nil {
//	        panic(err)
//	    }
//	}
//
// # Wire Form
//
// Event implements json.Marshaler and json.Unmarshaler. Generators and types
// are written by name so relayed events stay readable; unknown names are
// rejected on decode.
package event
