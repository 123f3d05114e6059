package gamepad

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/karalabe/hid"

	"github.com/imarchand/pirobot-remote/internal/input"
)

// Identify derives a stable GUID for a joystick. The joystick driver only
// exposes a display name, so the USB HID table is consulted for a matching
// product: vendor, product and serial pin the identity across reconnects
// and across machines. When no HID entry matches, the name alone has to do.
func Identify(name string) input.DeviceID {
	for _, info := range hid.Enumerate(0, 0) {
		if info.Product == "" || !strings.EqualFold(info.Product, name) {
			continue
		}
		return hashID(fmt.Sprintf("%04x:%04x:%s", info.VendorID, info.ProductID, info.Serial))
	}
	return hashID("name:" + name)
}

func hashID(seed string) input.DeviceID {
	sum := sha1.Sum([]byte(seed))
	return input.DeviceID(hex.EncodeToString(sum[:8]))
}

// DeviceInfo describes one attached HID device for the list-devices
// subcommand.
type DeviceInfo struct {
	VendorID  uint16
	ProductID uint16
	Product   string
	Serial    string
}

// ListHID enumerates attached HID devices.
func ListHID() []DeviceInfo {
	var out []DeviceInfo
	for _, info := range hid.Enumerate(0, 0) {
		out = append(out, DeviceInfo{
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Product:   info.Product,
			Serial:    info.Serial,
		})
	}
	return out
}
