package ui

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/services"
	"github.com/desertthunder/spotpair/internal/tasks"
)

// Targeter retargets playback to a device and persists the choice.
//
// [*services.Session] implements it.
type Targeter interface {
	SelectDevice(id string) error
}

var _ Targeter = (*services.Session)(nil)

// ModelOpts configures a [Model].
type ModelOpts struct {
	Player     services.Player
	Controller *tasks.Controller
	Targeter   Targeter
	Selected   string // id of the currently targeted device, empty for the active device
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	player     services.Player
	controller *tasks.Controller
	targeter   Targeter
	width      int
	height     int
	devices    []models.Device
	selected   string
	deviceList list.Model
	loading    bool
	toggling   bool
	playing    bool
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	controller := opts.Controller
	if controller == nil {
		controller = tasks.NewController(tasks.ControllerOpts{Player: opts.Player})
	}

	deviceList := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	deviceList.Title = "Spotify Devices"
	deviceList.SetFilteringEnabled(false)
	deviceList.SetShowHelp(false)

	return &Model{
		ctx:        ctx,
		player:     opts.Player,
		controller: controller,
		targeter:   opts.Targeter,
		selected:   opts.Selected,
		deviceList: deviceList,
		loading:    true,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Selected returns the id of the targeted device.
func (m *Model) Selected() string { return m.selected }

// Err returns the last error that stopped the device list from loading.
func (m *Model) Err() error { return m.err }

// Init loads the device list.
func (m *Model) Init() tea.Cmd {
	return m.fetchDevices()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.deviceList.SetSize(max(msg.Width-4, 20), max(msg.Height-8, 5))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgDevicesFetched:
		data := msg.data.(devicesFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.devices = data.devices
		cmd := m.deviceList.SetItems(deviceItems(m.devices, m.selected))
		if i := slices.IndexFunc(m.devices, func(d models.Device) bool { return d.ID == m.selected }); i >= 0 {
			m.deviceList.Select(i)
		}
		m.status = fmt.Sprintf("%d devices", len(m.devices))
		return m, cmd

	case MsgToggled:
		data := msg.data.(toggled)
		m.toggling = false
		m.playing = data.playing
		m.status = data.event.Message
		return m, nil

	case MsgDeviceTargeted:
		data := msg.data.(deviceTargeted)
		if data.err != nil {
			m.status = fmt.Sprintf("Error: %v", data.err)
			return m, nil
		}
		m.selected = data.device.ID
		m.status = fmt.Sprintf("Targeting %s", data.device.Name)
		return m, m.deviceList.SetItems(deviceItems(m.devices, m.selected))
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.status = "Loading devices..."
		return m, m.fetchDevices()
	case key.Matches(msg, m.keys.toggle):
		if m.toggling {
			return m, nil
		}
		m.toggling = true
		return m, m.toggle()
	case key.Matches(msg, m.keys.target):
		item, ok := m.deviceList.SelectedItem().(deviceItem)
		if !ok {
			return m, nil
		}
		return m, m.target(item.device)
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

// View renders the device list, the status line and help.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}
	if m.loading && len(m.devices) == 0 {
		return styles.title.Render("Loading devices...")
	}

	status := styles.help.Render(m.status)
	if m.playing {
		status = styles.ok.Render("▶ ") + status
	}

	target := "active device"
	if m.selected != "" {
		target = m.selected
		if i := slices.IndexFunc(m.devices, func(d models.Device) bool { return d.ID == m.selected }); i >= 0 {
			target = m.devices[i].Name
		}
	} else {
		target = styles.warn.Render(target)
	}

	return fmt.Sprintf("%s\nTarget: %s\n%s\n\n%s", m.deviceList.View(), target, status, m.help.View(m.keys))
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.player.Devices(m.ctx)
		if err != nil {
			return devicesFetchedMsg(nil, err)
		}
		return devicesFetchedMsg(slices.Collect(devices), nil)
	}
}

func (m *Model) toggle() tea.Cmd {
	return func() tea.Msg {
		ev, err := m.controller.Handle(m.ctx, tasks.Toggle)
		return toggledMsg(ev, m.controller.Playing(), err)
	}
}

func (m *Model) target(device models.Device) tea.Cmd {
	return func() tea.Msg {
		if m.targeter == nil {
			return deviceTargetedMsg(device, fmt.Errorf("device selection is not available"))
		}
		return deviceTargetedMsg(device, m.targeter.SelectDevice(device.ID))
	}
}
