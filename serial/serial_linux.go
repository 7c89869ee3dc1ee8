//go:build linux

package serial

import (
	"strings"

	"github.com/hedhyw/Go-Serial-Detector/pkg/v1/serialdet"
)

// FindModemPortName scans the active serial devices for something that looks
// like a GSM modem and returns its device path.
func FindModemPortName() (string, error) {
	devices, err := serialdet.List()
	if err != nil {
		return "", err
	}

	for _, device := range devices {
		description := strings.ToLower(device.Description())
		if strings.Contains(description, "modem") || strings.Contains(description, "gsm") {
			return device.Path(), nil
		}
	}

	return "", NoModemFound
}
