package runner

// StaticDeviceInfo is a DeviceInfoProvider returning fixed names. It serves
// standalone deployments where the hardware identity comes from configuration
// rather than a live daemon.
type StaticDeviceInfo struct {
	Model   string
	Chipset string
}

func (s StaticDeviceInfo) ModelName() (string, error)   { return s.Model, nil }
func (s StaticDeviceInfo) ChipsetName() (string, error) { return s.Chipset, nil }
