// Package tasks runs the button loop that drives playback on a paired device.
//
// # Controller
//
// [Controller] turns button [Input] into player calls:
//
//   - [Tap] : start playback of the configured context or track URIs
//   - [Hold] : pause
//   - [Toggle] : play when paused, pause when playing
//
// Presses arriving faster than the debounce interval are dropped (golang.org/x/time/rate). A
// [services.APIError] from the player is logged with its message and reason and the loop keeps
// running; the device stays usable when no playback device is active or the account lacks Premium.
//
// # Events
//
// Every handled input produces an [Event] on the optional events channel. Sends use select with
// default so a slow or absent consumer never blocks the loop.
//
// # Input Sources
//
// [ScanInputs] reads one input per line from an [io.Reader] (stdin for the control command).
package tasks
