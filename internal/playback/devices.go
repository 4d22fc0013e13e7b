// SPDX-License-Identifier: MIT

// Package playback lists PortAudio devices and plays rendered samples
// through an output stream.
package playback

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// DefaultDeviceID selects the host's default output device.
const DefaultDeviceID = -1

// Device represents an audio device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultOutput   bool
}

// Kind describes which directions the device supports.
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// paDevicesFunc is replaced in tests.
var paDevicesFunc = portaudio.Devices

// HostDevices returns every device PortAudio reports. PortAudio must be
// initialized.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			IsDefaultOutput:   defaultName != "" && info.Name == defaultName,
		}
		if info.HostApi != nil {
			devices[i].HostAPI = info.HostApi.Name
		}
	}
	return devices, nil
}

// OutputDevice resolves deviceID to a PortAudio device able to play audio.
// DefaultDeviceID returns the host default.
func OutputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == DefaultDeviceID {
		return portaudio.DefaultOutputDevice()
	}

	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if infos[deviceID].MaxOutputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) has no output channels", deviceID, infos[deviceID].Name)
	}
	return infos[deviceID], nil
}
