package agui

import (
	"time"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/media"
	"github.com/spetersoncode/mosaic/settings"
	"github.com/spetersoncode/mosaic/studio"
	"github.com/spetersoncode/mosaic/timeline"
)

// Source is the studio state shown in the feed.
type Source interface {
	Generations() []timeline.Record
	Media() []media.Item
	Notice() (studio.Notice, bool)
}

// Generation is the feed view of a timeline record. Media URLs are carried
// once, in State.Media.
type Generation struct {
	ID             string        `json:"id"`
	Kind           timeline.Kind `json:"kind"`
	MediaKind      ai.MediaKind  `json:"mediaKind"`
	Prompt         string        `json:"prompt"`
	CreatedAt      time.Time     `json:"createdAt"`
	SourceImageRef string        `json:"sourceImageRef,omitempty"`
	Count          int           `json:"count"`
}

// Preferences is the feed view of user settings. Keys are never sent;
// Configured lists the providers that have one.
type Preferences struct {
	Provider     ai.Provider   `json:"provider"`
	ModelVariant string        `json:"modelVariant,omitempty"`
	Theme        string        `json:"theme,omitempty"`
	Configured   []ai.Provider `json:"configured"`
}

// NewPreferences builds the feed view of s.
func NewPreferences(s settings.Settings) *Preferences {
	p := &Preferences{
		Provider:     s.Provider,
		ModelVariant: s.ModelVariant,
		Theme:        s.Theme,
		Configured:   []ai.Provider{},
	}
	for _, provider := range []ai.Provider{ai.ProviderGoogle, ai.ProviderOpenAI, ai.ProviderAnthropic} {
		if s.Credentials.For(provider) != "" {
			p.Configured = append(p.Configured, provider)
		}
	}
	return p
}

// State is the STATE_SNAPSHOT document.
type State struct {
	Generations []Generation   `json:"generations"`
	Media       []media.Item   `json:"media"`
	Notice      *studio.Notice `json:"notice"`
	Preferences *Preferences   `json:"preferences,omitempty"`
}

// Snapshot captures the current state of src.
func Snapshot(src Source) State {
	records := src.Generations()
	st := State{
		Generations: make([]Generation, 0, len(records)),
		Media:       src.Media(),
	}
	for _, r := range records {
		st.Generations = append(st.Generations, Generation{
			ID:             r.ID,
			Kind:           r.Kind,
			MediaKind:      r.MediaKind,
			Prompt:         r.Prompt,
			CreatedAt:      r.CreatedAt,
			SourceImageRef: r.SourceImageRef,
			Count:          r.Len(),
		})
	}
	if st.Media == nil {
		st.Media = []media.Item{}
	}
	if n, ok := src.Notice(); ok {
		st.Notice = &n
	}
	return st
}
