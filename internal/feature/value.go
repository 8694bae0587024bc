package feature

// Value is a quantized indicator value.
type Value int8

const (
	// Suspicious marks a signal commonly seen on phishing pages.
	Suspicious Value = -1

	// Neutral marks an ambiguous signal or one that could not be computed.
	Neutral Value = 0

	// Legitimate marks a signal commonly seen on legitimate pages.
	Legitimate Value = 1
)

// String returns a human-readable representation of the value.
func (v Value) String() string {
	switch v {
	case Suspicious:
		return "suspicious"
	case Neutral:
		return "neutral"
	case Legitimate:
		return "legitimate"
	default:
		return "unknown"
	}
}

// Vector is an ordered sequence of indicator values laid out by a Schema.
type Vector []Value

// Float64s converts the vector into the numeric form consumed by the classifier.
func (v Vector) Float64s() []float64 {
	out := make([]float64, len(v))
	for i, value := range v {
		out[i] = float64(value)
	}
	return out
}

// Clone returns a copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// bucket quantizes a percentage into Legitimate, Neutral or Suspicious using
// two ascending thresholds: below low is Legitimate, below high is Neutral.
func bucket(percent, low, high float64) Value {
	switch {
	case percent < low:
		return Legitimate
	case percent < high:
		return Neutral
	default:
		return Suspicious
	}
}

// flag returns Suspicious when cond holds and Legitimate otherwise.
func flag(cond bool) Value {
	if cond {
		return Suspicious
	}
	return Legitimate
}
