package studio

import (
	"time"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/timeline"
)

// Sample is a pre-seeded demo generation. Its items carry no raw bytes, so
// conversion workflows reject them.
type Sample struct {
	Prompt    string    `json:"prompt" koanf:"prompt"`
	URLs      []string  `json:"urls" koanf:"urls"`
	CreatedAt time.Time `json:"createdAt" koanf:"created_at"`
}

// Seed appends sample generations after existing records.
func (s *Studio) Seed(samples ...Sample) {
	records := make([]timeline.Record, 0, len(samples))
	for _, sm := range samples {
		rec := timeline.Record{
			Kind:      timeline.KindImage,
			MediaKind: ai.MediaImage,
			Prompt:    sm.Prompt,
			CreatedAt: sm.CreatedAt,
		}
		for _, u := range sm.URLs {
			rec.Images = append(rec.Images, ai.ImageItem{URL: u, IsSample: true})
		}
		records = append(records, rec)
	}
	s.timeline.Seed(records...)
}
