package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotpair/internal/models"
)

var _ list.Item = deviceItem{}

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device   models.Device
	selected bool
}

func (i deviceItem) FilterValue() string { return i.device.Name }

func (i deviceItem) Title() string {
	if i.selected {
		return styles.target.Render("★ " + i.device.Name)
	}
	return i.device.Name
}

func (i deviceItem) Description() string {
	parts := []string{i.device.Type}
	if i.device.IsActive {
		parts = append(parts, "active")
	}
	if v := i.device.Volume(); v >= 0 {
		parts = append(parts, fmt.Sprintf("volume %d%%", v))
	}
	if i.device.IsRestricted {
		parts = append(parts, "restricted")
	}
	return strings.Join(parts, " • ")
}

// deviceItems builds list items, marking the device whose id equals selected.
func deviceItems(devices []models.Device, selected string) []list.Item {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d, selected: selected != "" && d.ID == selected}
	}
	return items
}
