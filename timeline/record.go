package timeline

import (
	"slices"
	"time"

	ai "github.com/spetersoncode/mosaic"
)

// Kind tags the variant of a Record.
type Kind string

const (
	KindLoading Kind = "loading"
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
)

// Record is one generation. Exactly one variant is populated, selected by Kind:
//
//   - KindLoading: placeholder; MediaKind says what is being generated
//   - KindImage: Images is non-empty
//   - KindVideo: Videos is non-empty
type Record struct {
	ID             string         `json:"id"`
	Kind           Kind           `json:"kind"`
	MediaKind      ai.MediaKind   `json:"mediaKind"`
	Prompt         string         `json:"prompt"`
	CreatedAt      time.Time      `json:"createdAt"`
	SourceImageRef string         `json:"sourceImageRef,omitempty"`
	Images         []ai.ImageItem `json:"images,omitempty"`
	Videos         []string       `json:"videos,omitempty"`
}

// Loading reports whether the record is still a placeholder.
func (r Record) Loading() bool { return r.Kind == KindLoading }

// Len returns the number of media items in a completed record.
func (r Record) Len() int {
	switch r.Kind {
	case KindImage:
		return len(r.Images)
	case KindVideo:
		return len(r.Videos)
	}
	return 0
}

func (r Record) clone() Record {
	r.Images = slices.Clone(r.Images)
	r.Videos = slices.Clone(r.Videos)
	return r
}

// Result is the payload that completes a loading record.
type Result struct {
	Images []ai.ImageItem
	Videos []string
	// Prompt replaces the displayed prompt when set.
	Prompt string
}

// ImageResult builds an image completion.
func ImageResult(items []ai.ImageItem, prompt string) Result {
	return Result{Images: items, Prompt: prompt}
}

// VideoResult builds a video completion.
func VideoResult(urls []string) Result {
	return Result{Videos: urls}
}
