package per

// Options carries the codec's three configuration knobs. All fields have
// defaults matching zero-config behavior for a strict decoder; callers
// normally obtain one from lib/config rather than constructing it by hand.
type Options struct {
	// StrictEnum, when true, fails InvalidEnumerationValue on an unknown
	// value of a root enumeration. Default true.
	StrictEnum bool
	// MaxRecursionDepth bounds recursive types such as GenericData/Content.
	// Default 32.
	MaxRecursionDepth int
	// PreserveUnknownExtensions, when true, retains unknown extension
	// open-type bytes on the decoded value; when false, they are discarded.
	// Default true.
	PreserveUnknownExtensions bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		StrictEnum:                true,
		MaxRecursionDepth:         32,
		PreserveUnknownExtensions: true,
	}
}

func (o Options) normalized() Options {
	if o.MaxRecursionDepth <= 0 {
		o.MaxRecursionDepth = 32
	}
	return o
}
