package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDevicesFetched MsgKind = iota
	MsgToggled
	MsgDeviceTargeted
)

type devicesFetched struct {
	devices []models.Device
	err     error
}

type toggled struct {
	event   tasks.Event
	playing bool
	err     error
}

type deviceTargeted struct {
	device models.Device
	err    error
}

// devicesFetchedMsg is the constructor for [MsgDevicesFetched]
func devicesFetchedMsg(devices []models.Device, err error) Msg {
	return Msg{kind: MsgDevicesFetched, data: devicesFetched{devices, err}}
}

// toggledMsg is the constructor for [MsgToggled]
func toggledMsg(event tasks.Event, playing bool, err error) Msg {
	return Msg{kind: MsgToggled, data: toggled{event, playing, err}}
}

// deviceTargetedMsg is the constructor for [MsgDeviceTargeted]
func deviceTargetedMsg(device models.Device, err error) Msg {
	return Msg{kind: MsgDeviceTargeted, data: deviceTargeted{device, err}}
}
