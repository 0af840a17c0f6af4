package stitch

// Stats summarizes a run for display.
type Stats struct {
	Processed  int
	Failed     int
	TotalPages int // Output page count, label pages included.
}

// Stats reads the current counts. It does not change any state.
func (a *Assembler) Stats() Stats {
	return Stats{
		Processed:  len(a.processed),
		Failed:     len(a.failed),
		TotalPages: a.out.NumPages(),
	}
}
