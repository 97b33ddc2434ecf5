package domain

// ParseCandidate one raw tuple handed over by an extraction collaborator
// (file parser, wearable sync). Nothing about it is guaranteed well-formed:
// ValueRaw may be non-numeric, SampleTimeRaw may be empty.
type ParseCandidate struct {
	OriginalName  string `json:"original_name"`
	ValueRaw      string `json:"value_raw"`
	UnitRaw       string `json:"unit_raw"`
	SampleTimeRaw string `json:"sample_time_raw"`
}
