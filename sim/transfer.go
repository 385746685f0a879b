package sim

// TransferRoute connects a source vessel to a destination through a pump
// and its isolation valves. Routes are declared in configuration; operators
// activate them with StartTransfer and the engine moves material along
// active routes every tick. A route whose destination is the separator
// carries feed; the separation products leave through the separator's own
// outlet tanks, not through routes.
type TransferRoute struct {
	ID       string
	Source   string
	Dest     string
	PumpID   string
	ValveIDs []string

	Permitted   bool
	Interlocked bool
	Active      bool

	// FlowRateM3h is the commanded rate; DeliveredM3h is what actually
	// moved last tick after capacity and enforcement clamps.
	FlowRateM3h  float64
	DeliveredM3h float64
}

// feedsSeparator reports whether the route delivers into the given
// separator rather than into a tank.
func (r *TransferRoute) feedsSeparator(sepID string) bool {
	return r.Dest == sepID
}
