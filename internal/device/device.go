// Package device resolves the identity facts carried on the info metric:
// MAC address, device id, serial number, reset reason and build identity.
package device

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Info holds the device facts baked into every snapshot. Resolved once at
// startup; the device is stateless across reboots, so nothing here changes
// at runtime.
type Info struct {
	MACAddress  string
	DeviceID    string // MAC without separators, lowercase
	Serial      string
	ResetReason string
	Version     string
	Commit      string
}

// Resolve gathers device identity. version and commit come from build-time
// ldflags. Fields that cannot be determined fall back to "unknown" rather
// than failing: identity is diagnostic, not operational.
func Resolve(ctx context.Context, version, commit string) Info {
	info := Info{
		MACAddress:  "unknown",
		DeviceID:    "unknown",
		Serial:      "unknown",
		ResetReason: resetReason(),
		Version:     version,
		Commit:      commit,
	}

	if mac := firstHardwareMAC(ctx); mac != "" {
		info.MACAddress = strings.ToUpper(mac)
		info.DeviceID = strings.ToLower(strings.ReplaceAll(mac, ":", ""))
	}
	if id, err := host.HostIDWithContext(ctx); err == nil && id != "" {
		info.Serial = id
	}
	return info
}

// firstHardwareMAC returns the MAC of the first non-loopback interface
// that has one.
func firstHardwareMAC(ctx context.Context) string {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return ""
	}
	for _, ifc := range ifaces {
		if ifc.HardwareAddr == "" {
			continue
		}
		loopback := false
		for _, f := range ifc.Flags {
			if strings.EqualFold(f, "loopback") {
				loopback = true
				break
			}
		}
		if !loopback {
			return ifc.HardwareAddr
		}
	}
	return ""
}

// resetReason reports why the device last rebooted. Hosts have no
// SoC-style reset register, so the boot sequence supplies it via
// environment; absent that, "unknown".
func resetReason() string {
	if r := os.Getenv("AQMON_RESET_REASON"); r != "" {
		return r
	}
	return "unknown"
}
