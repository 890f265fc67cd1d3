package gait

// SegmentCycles splits contact indices into candidate gait cycles. Each
// consecutive pair of contacts bounds one cycle, kept only when its length
// exceeds minSamples. Zero or one contact yields no cycles.
func SegmentCycles(contacts []int, minSamples int) []Cycle {
	var cycles []Cycle
	for i := 0; i+1 < len(contacts); i++ {
		c := Cycle{Start: contacts[i], End: contacts[i+1]}
		if c.Len() > minSamples {
			cycles = append(cycles, c)
		}
	}
	return cycles
}
