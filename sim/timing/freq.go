package timing

import "log"

// Freq defines the type of frequency, in Hz.
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Seconds converts a number of cycles in this frequency domain to seconds.
func (f Freq) Seconds(t VTimeInCycle) float64 {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return float64(t) / float64(f)
}
