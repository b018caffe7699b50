package server

import (
	"net/http"

	"github.com/spetersoncode/mosaic/agui"
)

// handleEvents streams the AG-UI feed until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sink, err := agui.SSESink(w)
	if err != nil {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	changes, stopChanges := s.studio.Timeline().Subscribe()
	defer stopChanges()
	evs, stopEvents := s.hub.Subscribe()
	defer stopEvents()

	feed := &agui.Feed{
		Mapper:  agui.NewMapper(r.URL.Query().Get("threadId"), ""),
		Source:  s.studio,
		Changes: changes,
		Events:  evs,
		Logger:  log,
	}
	if s.settings != nil {
		prefs, stopPrefs := s.settings.Subscribe()
		defer stopPrefs()
		cur := s.settings.Current()
		feed.Preferences = &cur
		feed.Settings = prefs
	}
	log.Info("feed opened", "subscribers", s.hub.Len())
	if err := feed.Run(r.Context(), sink); err != nil {
		log.Warn("feed ended", "error", err)
	}
}
