package thermal

const (
	secondsPerDay = 86400.0
	daysPerYear   = 365.24
)

// Clock accumulates simulated time in seconds.
type Clock struct {
	seconds float64
	steps   int
}

// Advance adds one step of dt seconds.
func (c *Clock) Advance(dt float64) {
	c.seconds += dt
	c.steps++
}

// Reset zeroes the clock for a new run.
func (c *Clock) Reset() {
	c.seconds = 0
	c.steps = 0
}

func (c Clock) Seconds() float64 { return c.seconds }

func (c Clock) Steps() int { return c.steps }

func (c Clock) Years() float64 { return SecondsToYears(c.seconds) }

func (c Clock) Kiloyears() float64 { return c.Years() / 1e3 }

// SecondsToYears converts using 365.24-day years.
func SecondsToYears(s float64) float64 {
	return s / secondsPerDay / daysPerYear
}
