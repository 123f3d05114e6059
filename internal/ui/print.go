package ui

import (
	"fmt"
	"strings"

	"github.com/imarchand/pirobot-remote/internal/gamepad"
	"github.com/imarchand/pirobot-remote/internal/input"
)

// PrintVersion prints the version banner.
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("pirobot-remote") + " " + MutedStyle.Render("v"+version))
}

// PrintUsage prints command line usage.
func PrintUsage(version string) {
	PrintVersion(version)
	fmt.Println()
	fmt.Println(BoldStyle.Render("Usage:"))
	fmt.Println("  pirobot-remote [flags]            connect and drive the robot")
	fmt.Println("  pirobot-remote configure [flags]  edit input device bindings")
	fmt.Println("  pirobot-remote list-devices       list attached HID devices")
	fmt.Println()
	fmt.Println(BoldStyle.Render("Flags:"))
	fmt.Println("  -host string     robot host (overrides config)")
	fmt.Println("  -config string   path to remote.yaml")
	fmt.Println("  -verbose         enable debug logging")
	fmt.Println("  -version         print version and exit")
}

// PrintFatalError prints a styled error with detail.
func PrintFatalError(title, detail string) {
	fmt.Println(ErrorStyle.Render("Error: ") + title)
	if detail != "" {
		fmt.Println(MutedStyle.Render("  " + detail))
	}
}

// PrintDeviceList prints attached HID devices.
func PrintDeviceList(devices []gamepad.DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println(Muted("No HID devices found"))
		return
	}
	fmt.Println(TitleStyle.Render("Attached HID devices"))
	for _, d := range devices {
		name := d.Product
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %s  %s\n",
			MutedStyle.Render(fmt.Sprintf("0x%04X:0x%04X", d.VendorID, d.ProductID)),
			name,
		)
	}
}

// PrintBinding prints one action's current bindings.
func PrintBinding(name string, events []input.Event) {
	rendered := "N/A"
	if len(events) > 0 {
		parts := make([]string, len(events))
		for i, ev := range events {
			parts[i] = ev.String()
		}
		rendered = strings.Join(parts, ", ")
	}
	fmt.Printf("  %-24s %s\n", name, EventStyle.Render(rendered))
}

// PrintSaved reports a successful save.
func PrintSaved(dir string) {
	fmt.Println(SuccessStyle.Render("Bindings saved") + " " + MutedStyle.Render(dir))
}
