package vesync

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Humidifier work modes accepted by the bypass API.
const (
	HumidifierModeManual = "manual"
	HumidifierModeAuto   = "auto"
	HumidifierModeSleep  = "sleep"
)

// HumidifierStatus is the decoded result of a humidifier status read.
type HumidifierStatus struct {
	Enabled          bool   `json:"enabled"`
	Mode             string `json:"mode"`
	Humidity         int    `json:"humidity"`
	MistLevel        int    `json:"mist_level"`
	MistVirtualLevel int    `json:"mist_virtual_level"`
	WaterLacks       bool   `json:"water_lacks"`
	Display          bool   `json:"display"`
}

// SetPower switches the humidifier on or off.
func (h *Humidifier) SetPower(ctx context.Context, on bool) (bool, error) {
	return h.client.SendCommand(ctx, &h.Device, "setSwitch", map[string]any{
		"enabled": on,
		"id":      0,
	})
}

// SetMistLevel sets the manual mist output level.
func (h *Humidifier) SetMistLevel(ctx context.Context, level int) (bool, error) {
	return h.client.SendCommand(ctx, &h.Device, "setVirtualLevel", map[string]any{
		"level": level,
		"id":    0,
		"type":  "mist",
	})
}

// SetMode sets the humidifier work mode (manual, auto or sleep).
func (h *Humidifier) SetMode(ctx context.Context, mode string) (bool, error) {
	return h.client.SendCommand(ctx, &h.Device, "setHumidityMode", map[string]any{
		"mode": mode,
	})
}

// SetDisplay switches the on-device display.
func (h *Humidifier) SetDisplay(ctx context.Context, on bool) (bool, error) {
	return h.client.SendCommand(ctx, &h.Device, "setDisplay", map[string]any{
		"state": on,
	})
}

// Status reads and decodes the humidifier's current state. A nil status with
// a nil error means the cloud reported the device unavailable.
func (h *Humidifier) Status(ctx context.Context) (*HumidifierStatus, error) {
	raw, err := h.client.GetDeviceInfo(ctx, &h.Device)
	if err != nil || raw == nil {
		return nil, err
	}

	var status HumidifierStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, errors.Wrap(err, "decode humidifier status")
	}
	return &status, nil
}
