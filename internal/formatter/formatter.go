// package formatter renders devices and credential records as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotpair/internal/models"
	"github.com/desertthunder/spotpair/internal/shared"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists the accepted values of the --format flag.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// FormatDevices renders devices in format. selected marks the device the session targets ("" for none).
func FormatDevices(format string, devices []models.Device, selected string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return DevicesToText(devices, selected)
	case FormatMarkdown, "md":
		return DevicesToMarkdown(devices, selected)
	case FormatCSV:
		return DevicesToCSV(devices)
	case FormatJSON:
		return DevicesToJSON(devices)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// DevicesToCSV converts devices to CSV with columns: ID, Name, Type, Active, Private, Restricted, Volume
func DevicesToCSV(devices []models.Device) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Type", "Active", "Private", "Restricted", "Volume"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, d := range devices {
		record := []string{
			d.ID,
			d.Name,
			d.Type,
			strconv.FormatBool(d.IsActive),
			strconv.FormatBool(d.IsPrivateSession),
			strconv.FormatBool(d.IsRestricted),
			volumeString(d),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DevicesToMarkdown converts devices to a Markdown table
func DevicesToMarkdown(devices []models.Device, selected string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Devices\n\n")
	if len(devices) == 0 {
		buf.WriteString("_No devices available._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| | Name | Type | Active | Volume | ID |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, d := range devices {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | `%s` |\n",
			marker(d, selected, "★"),
			escapeMarkdown(d.Name),
			d.Type,
			yesNo(d.IsActive),
			volumeString(d),
			d.ID,
		))
	}

	return buf.Bytes(), nil
}

// DevicesToText converts devices to plain text, one per line
func DevicesToText(devices []models.Device, selected string) ([]byte, error) {
	var buf bytes.Buffer

	if len(devices) == 0 {
		buf.WriteString("No devices available.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("Devices: %d\n\n", len(devices)))
	for i, d := range devices {
		flags := []string{d.Type}
		if d.IsActive {
			flags = append(flags, "active")
		}
		if d.IsPrivateSession {
			flags = append(flags, "private")
		}
		if d.IsRestricted {
			flags = append(flags, "restricted")
		}
		buf.WriteString(fmt.Sprintf("%s%d. %s (%s) volume %s\n   %s\n",
			marker(d, selected, "*"), i+1, d.Name, strings.Join(flags, ", "), volumeString(d), d.ID))
	}

	return buf.Bytes(), nil
}

// DevicesToJSON converts devices to an indented JSON object with a devices array
func DevicesToJSON(devices []models.Device) ([]byte, error) {
	if devices == nil {
		devices = []models.Device{}
	}
	data, err := json.MarshalIndent(map[string]any{"devices": devices}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal devices: %w", err)
	}
	return append(data, '\n'), nil
}

// CredentialsStatus summarises a record with secrets masked
func CredentialsStatus(creds *models.Credentials, source string, updatedAt time.Time) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("Store:         %s\n", source))
	if creds == nil {
		buf.WriteString("Status:        not paired\n")
		return buf.String()
	}

	device := "(active device)"
	if creds.DeviceID != nil {
		device = *creds.DeviceID
	}

	buf.WriteString("Status:        paired\n")
	buf.WriteString(fmt.Sprintf("Client ID:     %s\n", creds.ClientID))
	buf.WriteString(fmt.Sprintf("Client Secret: %s\n", shared.MaskSecret(creds.ClientSecret)))
	buf.WriteString(fmt.Sprintf("Access Token:  %s\n", shared.MaskSecret(creds.AccessToken)))
	buf.WriteString(fmt.Sprintf("Refresh Token: %s\n", shared.MaskSecret(creds.RefreshToken)))
	buf.WriteString(fmt.Sprintf("Device:        %s\n", device))
	if !updatedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("Updated:       %s\n", updatedAt.Format(time.RFC3339)))
	}

	return buf.String()
}

func volumeString(d models.Device) string {
	if v := d.Volume(); v >= 0 {
		return strconv.Itoa(v) + "%"
	}
	return "-"
}

func marker(d models.Device, selected, symbol string) string {
	if selected != "" && d.ID == selected {
		return symbol + " "
	}
	if symbol == "*" {
		return "  "
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
