package irclone

// Version information for the irclone package.
const (
	Version              = "1.0.0"
	MinCompatibleVersion = "1.0.0"
)
