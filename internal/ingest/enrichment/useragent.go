package enrichment

import (
	ua "github.com/mileusna/useragent"
)

// Device holds the browser and OS families parsed from a User-Agent string.
// Either field is empty when it could not be determined.
type Device struct {
	Browser string
	OS      string
}

// DeviceParser derives device information from User-Agent strings.
type DeviceParser struct{}

// NewDeviceParser creates a new DeviceParser.
func NewDeviceParser() *DeviceParser {
	return &DeviceParser{}
}

// Parse returns the browser and OS families for the given User-Agent.
// Absent or unparseable input yields a zero Device, never an error.
func (d *DeviceParser) Parse(uaString string) Device {
	if uaString == "" {
		return Device{}
	}

	parsed := ua.Parse(uaString)
	return Device{
		Browser: parsed.Name,
		OS:      parsed.OS,
	}
}
