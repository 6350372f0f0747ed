package vesync

import "fmt"

// Known device type identifiers, per family. The catalog the vendor returns
// can contain families this client does not support (outlets, bulbs, older
// purifiers on the v1 API); those records are dropped during classification.
var (
	purifierTypes = map[string]bool{
		"Core200S":       true,
		"Core300S":       true,
		"Core400S":       true,
		"Core600S":       true,
		"LAP-C201S-AUSR": true,
		"LAP-C202S-WUSR": true,
		"LAP-C301S-WJP":  true,
		"LAP-C401S-WJP":  true,
		"LAP-C401S-WUSR": true,
		"LAP-C601S-WUS":  true,
		"LAP-C601S-WEU":  true,
	}

	humidifierTypes = map[string]bool{
		"Classic200S":    true,
		"Classic300S":    true,
		"Dual200S":       true,
		"LUH-A601S-WUSB": true,
		"LUH-A602S-WUSR": true,
		"LUH-D301S-WUSR": true,
		"LUH-O451S-WUS":  true,
	}
)

// connectionTypeWifiAir is the connectivity family shared by the supported
// air devices.
const connectionTypeWifiAir = "wifi-air"

// RawDevice is one record of the vendor's device catalog as returned by
// discovery. Depending on firmware generation the same logical device ships
// either a legacy `extension` block or a modern `deviceProp` block.
type RawDevice struct {
	DeviceName       string         `json:"deviceName"`
	DeviceType       string         `json:"deviceType"`
	Type             string         `json:"type"`
	CID              string         `json:"cid"`
	UUID             string         `json:"uuid"`
	ConfigModule     string         `json:"configModule"`
	DeviceRegion     string         `json:"deviceRegion"`
	ConnectionStatus string         `json:"connectionStatus"`
	Extension        *RawExtension  `json:"extension"`
	DeviceProp       *RawDeviceProp `json:"deviceProp"`
}

// RawExtension is the legacy state block.
type RawExtension struct {
	FanSpeedLevel   *int   `json:"fanSpeedLevel"`
	AirQualityLevel int    `json:"airQualityLevel"`
	Mode            string `json:"mode"`
}

// RawDeviceProp is the modern state block.
type RawDeviceProp struct {
	PowerSwitch   int    `json:"powerSwitch"`
	WorkMode      string `json:"workMode"`
	FanSpeedLevel int    `json:"fanSpeedLevel"`
	AQLevel       int    `json:"AQLevel"`
}

// Extension is the canonical state shape both record generations are
// normalized into. Downstream command and status logic only ever sees this.
type Extension struct {
	FanSpeedLevel   int
	AirQualityLevel int
	Mode            string
	Enabled         bool
}

// Device is the common core of a typed device handle. Commands issued
// through a Device route back through the client that discovered it.
type Device struct {
	client *Client

	Name         string
	DeviceType   string
	CID          string
	UUID         string
	ConfigModule string
	Region       string
	Extension    Extension

	// statusMethod is the family's bypass method for status reads.
	statusMethod string
}

// String implements fmt.Stringer.
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s, cid %s)", d.Name, d.DeviceType, d.CID)
}

// Purifier is a typed handle for an air purifier.
type Purifier struct {
	Device
}

// Humidifier is a typed handle for a humidifier.
type Humidifier struct {
	Device
}

// Devices holds the typed collections produced by discovery.
type Devices struct {
	Purifiers   []*Purifier
	Humidifiers []*Humidifier
}

// All returns the common cores of every discovered device.
func (d *Devices) All() []*Device {
	out := make([]*Device, 0, len(d.Purifiers)+len(d.Humidifiers))
	for _, p := range d.Purifiers {
		out = append(out, &p.Device)
	}
	for _, h := range d.Humidifiers {
		out = append(out, &h.Device)
	}
	return out
}

// classify partitions a raw catalog into typed collections. The rules are
// disjoint; a record matching none of them is dropped without error.
func (c *Client) classify(raw []RawDevice) *Devices {
	devices := &Devices{}

	for i := range raw {
		rec := &raw[i]

		switch {
		case isLegacyPurifier(rec):
			devices.Purifiers = append(devices.Purifiers, c.newPurifier(rec, Extension{
				FanSpeedLevel:   *rec.Extension.FanSpeedLevel,
				AirQualityLevel: rec.Extension.AirQualityLevel,
				Mode:            rec.Extension.Mode,
			}))

		case isModernPurifier(rec):
			// Synthesize the legacy shape from deviceProp so downstream
			// logic treats both generations uniformly.
			devices.Purifiers = append(devices.Purifiers, c.newPurifier(rec, Extension{
				FanSpeedLevel:   rec.DeviceProp.FanSpeedLevel,
				AirQualityLevel: rec.DeviceProp.AQLevel,
				Mode:            rec.DeviceProp.WorkMode,
				Enabled:         rec.DeviceProp.PowerSwitch == 1,
			}))

		case isHumidifier(rec):
			devices.Humidifiers = append(devices.Humidifiers, c.newHumidifier(rec))

		default:
			c.log.Debug("skipping unsupported device",
				logField("deviceType", rec.DeviceType),
				logField("type", rec.Type),
			)
		}
	}

	return devices
}

func isLegacyPurifier(rec *RawDevice) bool {
	return purifierTypes[rec.DeviceType] &&
		rec.Type == connectionTypeWifiAir &&
		rec.Extension != nil &&
		rec.Extension.FanSpeedLevel != nil
}

func isModernPurifier(rec *RawDevice) bool {
	return purifierTypes[rec.DeviceType] &&
		rec.Type == connectionTypeWifiAir &&
		rec.DeviceProp != nil &&
		(rec.Extension == nil || rec.Extension.FanSpeedLevel == nil)
}

func isHumidifier(rec *RawDevice) bool {
	return humidifierTypes[rec.DeviceType] &&
		rec.Type == connectionTypeWifiAir &&
		rec.Extension == nil
}

func (c *Client) newPurifier(rec *RawDevice, ext Extension) *Purifier {
	return &Purifier{Device: c.newDevice(rec, ext, "getPurifierStatus")}
}

func (c *Client) newHumidifier(rec *RawDevice) *Humidifier {
	return &Humidifier{Device: c.newDevice(rec, Extension{}, "getHumidifierStatus")}
}

func (c *Client) newDevice(rec *RawDevice, ext Extension, statusMethod string) Device {
	return Device{
		client:       c,
		Name:         rec.DeviceName,
		DeviceType:   rec.DeviceType,
		CID:          rec.CID,
		UUID:         rec.UUID,
		ConfigModule: rec.ConfigModule,
		Region:       rec.DeviceRegion,
		Extension:    ext,
		statusMethod: statusMethod,
	}
}
