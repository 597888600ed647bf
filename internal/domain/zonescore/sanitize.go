package zonescore

// FilterMonotonic drops any sample whose timestamp is not strictly greater
// than the prior kept sample's timestamp. This filter is authoritative and
// must run before Score — the scorer assumes strictly monotonic samples
// and does not re-check.
func FilterMonotonic(samples []Sample) []Sample {
	if len(samples) == 0 {
		return samples
	}

	out := make([]Sample, 0, len(samples))
	out = append(out, samples[0])
	for _, s := range samples[1:] {
		if s.Timestamp.After(out[len(out)-1].Timestamp) {
			out = append(out, s)
		}
	}

	return out
}
