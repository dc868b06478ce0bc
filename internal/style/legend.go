package style

import "errors"

// LegendEntry is one row of the depth legend.
type LegendEntry struct {
	From  float64  `json:"from"`
	To    *float64 `json:"to,omitempty"`
	Color Color    `json:"color"`
	Label string   `json:"label"`
}

// ErrBandsOrder is returned when legend thresholds are not strictly increasing.
var ErrBandsOrder = errors.New("depth bands must be strictly increasing")

// Legend builds legend rows from ascending depth thresholds. Each row is
// colored as a depth just above its lower bound; the last row is open ended.
func Legend(bands []float64) ([]LegendEntry, error) {
	entries := make([]LegendEntry, 0, len(bands))

	for i, from := range bands {
		if i > 0 && from <= bands[i-1] {
			return nil, ErrBandsOrder
		}

		e := LegendEntry{
			From:  from,
			Color: ColorOf(from + 1),
			Label: FormatNumber(from) + "+",
		}
		if i+1 < len(bands) {
			to := bands[i+1]
			e.To = &to
			e.Label = FormatNumber(from) + "–" + FormatNumber(to)
		}

		entries = append(entries, e)
	}

	return entries, nil
}
