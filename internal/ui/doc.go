// Package ui implements the interactive device view using bubbletea's Elm architecture.
//
// The [Model] lists the devices reported by the player and marks the one the session targets.
// Space toggles playback through a [tasks.Controller], enter retargets the session to the
// highlighted device and persists the choice, r reloads the list and q quits.
//
// Remote calls run as [tea.Cmd] functions and report back through the [Msg] union, so the view
// never blocks on the network. Only one toggle is in flight at a time.
package ui
