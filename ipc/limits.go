package ipc

// Limits represents transport limits
type Limits struct {
	MaxFrame int `toml:"max_frame"`
}

// DefaultLimits returns the default transport limits
func DefaultLimits() Limits {
	return Limits{
		MaxFrame: DefaultMaxFrame,
	}
}

// Normalize replaces unset or out-of-range values with usable ones.
func (l Limits) Normalize() Limits {
	if l.MaxFrame <= 0 {
		l.MaxFrame = DefaultMaxFrame
	}
	if l.MaxFrame > MaxFrameHardLimit {
		l.MaxFrame = MaxFrameHardLimit
	}
	return l
}
