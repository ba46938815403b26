package frame

// PortID identifies a reader or a writer within a filter.
type PortID int

// Frames is the per-cycle set of frames of a filter, keyed by port.
type Frames map[PortID]*Frame

// Any returns some frame of the set (the only one for single-port sets).
func (s Frames) Any() *Frame {
	for _, f := range s {
		return f
	}
	return nil
}
