// Package media derives a flat, newest-first list of individual images and
// videos from timeline records, for navigation that spans generations.
//
// Flattening is a pure function of the records passed in: the same snapshot
// always yields the same items with the same composite ids.
package media

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/timeline"
)

// Item is one image or video from a completed generation.
type Item struct {
	// ID is "<generationID>:<index>".
	ID             string       `json:"id"`
	GenerationID   string       `json:"generationId"`
	Index          int          `json:"index"`
	Kind           ai.MediaKind `json:"kind"`
	URL            string       `json:"url"`
	Prompt         string       `json:"prompt"`
	CreatedAt      time.Time    `json:"createdAt"`
	SourceImageRef string       `json:"sourceImageRef,omitempty"`
	IsSample       bool         `json:"isSample,omitempty"`
	RawBytes       []byte       `json:"-"`
	MIMEType       string       `json:"-"`
}

// HasBytes reports whether the item can seed a conversion workflow.
func (it Item) HasBytes() bool {
	return it.Kind == ai.MediaImage && !it.IsSample && len(it.RawBytes) > 0
}

// ItemID builds the composite id for a generation's local index.
func ItemID(generationID string, index int) string {
	return generationID + ":" + strconv.Itoa(index)
}

// ParseID splits a composite id.
func ParseID(id string) (string, int, error) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 || i == len(id)-1 {
		return "", 0, fmt.Errorf("media: malformed id %q", id)
	}
	idx, err := strconv.Atoi(id[i+1:])
	if err != nil || idx < 0 {
		return "", 0, fmt.Errorf("media: malformed id %q", id)
	}
	return id[:i], idx, nil
}

// Flatten expands every completed record into items sorted by createdAt
// descending. Items of one record stay in local order, and records with equal
// timestamps keep their input order. Loading records contribute nothing.
func Flatten(records []timeline.Record) []Item {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b timeline.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	var out []Item
	for _, r := range ordered {
		switch r.Kind {
		case timeline.KindImage:
			for i, img := range r.Images {
				out = append(out, Item{
					ID:             ItemID(r.ID, i),
					GenerationID:   r.ID,
					Index:          i,
					Kind:           ai.MediaImage,
					URL:            img.URL,
					Prompt:         r.Prompt,
					CreatedAt:      r.CreatedAt,
					SourceImageRef: r.SourceImageRef,
					IsSample:       img.IsSample,
					RawBytes:       img.RawBytes,
					MIMEType:       img.MIMEType,
				})
			}
		case timeline.KindVideo:
			for i, url := range r.Videos {
				out = append(out, Item{
					ID:             ItemID(r.ID, i),
					GenerationID:   r.ID,
					Index:          i,
					Kind:           ai.MediaVideo,
					URL:            url,
					Prompt:         r.Prompt,
					CreatedAt:      r.CreatedAt,
					SourceImageRef: r.SourceImageRef,
				})
			}
		}
	}
	return out
}

// LocateGlobalIndex returns the position of (generationID, localIndex) in
// Flatten(records), or -1 when the pair names no completed item.
func LocateGlobalIndex(records []timeline.Record, generationID string, localIndex int) int {
	want := ItemID(generationID, localIndex)
	return slices.IndexFunc(Flatten(records), func(it Item) bool { return it.ID == want })
}

// Find returns the item with the composite id.
func Find(records []timeline.Record, id string) (Item, bool) {
	for _, it := range Flatten(records) {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
