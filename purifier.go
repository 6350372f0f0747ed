package vesync

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Purifier work modes accepted by the bypass API.
const (
	PurifierModeManual = "manual"
	PurifierModeAuto   = "auto"
	PurifierModeSleep  = "sleep"
)

// PurifierStatus is the decoded result of a purifier status read.
type PurifierStatus struct {
	Enabled         bool   `json:"enabled"`
	Mode            string `json:"mode"`
	Level           int    `json:"level"`
	AirQuality      int    `json:"air_quality"`
	AirQualityValue int    `json:"air_quality_value"`
	FilterLife      int    `json:"filter_life"`
	Display         bool   `json:"display"`
	ChildLock       bool   `json:"child_lock"`
}

// SetPower switches the purifier on or off.
func (p *Purifier) SetPower(ctx context.Context, on bool) (bool, error) {
	return p.client.SendCommand(ctx, &p.Device, "setSwitch", map[string]any{
		"enabled": on,
		"id":      0,
	})
}

// SetFanSpeed sets the manual fan speed level.
func (p *Purifier) SetFanSpeed(ctx context.Context, level int) (bool, error) {
	return p.client.SendCommand(ctx, &p.Device, "setLevel", map[string]any{
		"level": level,
		"id":    0,
		"type":  "wind",
	})
}

// SetMode sets the purifier work mode (manual, auto or sleep).
func (p *Purifier) SetMode(ctx context.Context, mode string) (bool, error) {
	return p.client.SendCommand(ctx, &p.Device, "setPurifierMode", map[string]any{
		"mode": mode,
	})
}

// SetDisplay switches the on-device display.
func (p *Purifier) SetDisplay(ctx context.Context, on bool) (bool, error) {
	return p.client.SendCommand(ctx, &p.Device, "setDisplay", map[string]any{
		"state": on,
	})
}

// Status reads and decodes the purifier's current state. A nil status with a
// nil error means the cloud reported the device unavailable.
func (p *Purifier) Status(ctx context.Context) (*PurifierStatus, error) {
	raw, err := p.client.GetDeviceInfo(ctx, &p.Device)
	if err != nil || raw == nil {
		return nil, err
	}

	var status PurifierStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, errors.Wrap(err, "decode purifier status")
	}
	return &status, nil
}
