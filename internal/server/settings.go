package server

import (
	"net/http"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/settings"
)

type settingsResponse struct {
	Provider     ai.Provider            `json:"provider"`
	ModelVariant string                 `json:"modelVariant"`
	Theme        string                 `json:"theme,omitempty"`
	APIKeys      map[ai.Provider]string `json:"apiKeys"`
}

type settingsRequest struct {
	Provider     *string                `json:"provider"`
	ModelVariant *string                `json:"modelVariant"`
	Theme        *string                `json:"theme"`
	APIKeys      map[ai.Provider]string `json:"apiKeys"`
}

// settingsBody masks every stored key.
func settingsBody(cur settings.Settings) settingsResponse {
	keys := make(map[ai.Provider]string)
	for _, p := range []ai.Provider{ai.ProviderGoogle, ai.ProviderOpenAI, ai.ProviderAnthropic} {
		if k := cur.Credentials.For(p); k != "" {
			keys[p] = settings.Mask(k)
		}
	}
	return settingsResponse{
		Provider:     cur.Provider,
		ModelVariant: cur.ModelVariant,
		Theme:        cur.Theme,
		APIKeys:      keys,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsBody(s.settings.Current()))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	for p := range req.APIKeys {
		if _, err := ai.ParseProvider(string(p)); err != nil {
			s.writeError(w, r, invalidInput("Unknown provider.", err))
			return
		}
	}

	cur, err := s.settings.Apply(r.Context(), settings.Update{
		Provider:     req.Provider,
		ModelVariant: req.ModelVariant,
		Theme:        req.Theme,
		APIKeys:      req.APIKeys,
	})
	if err != nil {
		s.writeError(w, r, invalidInput(err.Error(), err))
		return
	}
	writeJSON(w, http.StatusOK, settingsBody(cur))
}
