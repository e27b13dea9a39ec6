package platform

import "time"

// Options controls how a desktop notification is shown.
type Options struct {
	// AppName identifies the sender where the platform shows it.
	AppName string
	// IconPath, when set, is an image shown next to the message. Platforms
	// that cannot show images ignore it.
	IconPath string
	// Timeout is how long the notification stays up. Zero leaves it to the
	// notification server.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return "GrowthRing"
	}
	return o.AppName
}
