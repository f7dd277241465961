package platform

// AppName identifies polymark to the host notification service.
const AppName = "polymark"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath points to an image file shown with the notification where the
	// platform supports it.
	IconPath string
	// TimeoutMillis overrides the display duration. Zero uses DefaultTimeout.
	TimeoutMillis int32
}

// DefaultTimeout is how long a notification stays visible, in milliseconds.
const DefaultTimeout int32 = 5000

func (o Options) timeout() int32 {
	if o.TimeoutMillis > 0 {
		return o.TimeoutMillis
	}
	return DefaultTimeout
}
