package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/studio"
	"github.com/spetersoncode/mosaic/timeline"
)

type createGenerationRequest struct {
	Prompt      string       `json:"prompt"`
	Kind        ai.MediaKind `json:"kind"`
	SourceImage string       `json:"sourceImage"`
}

type improveMediaRequest struct {
	ImprovementPrompt string `json:"improvementPrompt"`
}

// generationResponse is a timeline record as listed to clients. Image bytes
// already travel inside the data URI, so they are not repeated.
type generationResponse struct {
	ID             string          `json:"id"`
	Kind           timeline.Kind   `json:"kind"`
	MediaKind      ai.MediaKind    `json:"mediaKind"`
	Prompt         string          `json:"prompt"`
	CreatedAt      time.Time       `json:"createdAt"`
	SourceImageRef string          `json:"sourceImageRef,omitempty"`
	Images         []imageResponse `json:"images,omitempty"`
	Videos         []string        `json:"videos,omitempty"`
}

type imageResponse struct {
	URL      string `json:"url"`
	MIMEType string `json:"mimeType,omitempty"`
	IsSample bool   `json:"isSample,omitempty"`
}

func newGenerationResponse(rec timeline.Record) generationResponse {
	out := generationResponse{
		ID:             rec.ID,
		Kind:           rec.Kind,
		MediaKind:      rec.MediaKind,
		Prompt:         rec.Prompt,
		CreatedAt:      rec.CreatedAt,
		SourceImageRef: rec.SourceImageRef,
		Videos:         rec.Videos,
	}
	for _, img := range rec.Images {
		out.Images = append(out.Images, imageResponse{URL: img.URL, MIMEType: img.MIMEType, IsSample: img.IsSample})
	}
	return out
}

type acceptedResponse struct {
	ID string `json:"id"`
}

func (s *Server) accepted(w http.ResponseWriter, r *http.Request, job *studio.Job, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.requestLogger(r).Info("generation accepted", "generation_id", job.ID)
	writeJSON(w, http.StatusAccepted, acceptedResponse{ID: job.ID})
}

func (s *Server) handleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	var req createGenerationRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	switch req.Kind {
	case "", ai.MediaImage:
		src, mimeType, err := sourceImage(req.SourceImage)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		job, err := s.studio.GenerateImages(r.Context(), req.Prompt, src, mimeType)
		s.accepted(w, r, job, err)
	case ai.MediaVideo:
		if req.SourceImage != "" {
			s.writeError(w, r, ai.NewFailure(ai.FailureUnsupportedSource,
				"Animate an image from the timeline instead of uploading one.", nil))
			return
		}
		job, err := s.studio.GenerateVideo(r.Context(), req.Prompt)
		s.accepted(w, r, job, err)
	default:
		s.writeError(w, r, invalidInput("Kind must be image or video.", nil))
	}
}

func (s *Server) handleImageToVideo(w http.ResponseWriter, r *http.Request) {
	job, err := s.studio.ImageToVideo(r.Context(), chi.URLParam(r, "mediaId"))
	s.accepted(w, r, job, err)
}

func (s *Server) handleImproveMedia(w http.ResponseWriter, r *http.Request) {
	var req improveMediaRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.studio.ImproveImage(r.Context(), chi.URLParam(r, "mediaId"), req.ImprovementPrompt)
	s.accepted(w, r, job, err)
}

func (s *Server) handleCancelGeneration(w http.ResponseWriter, r *http.Request) {
	if !s.studio.Cancel(chi.URLParam(r, "id")) {
		s.writeError(w, r, invalidInput("No running generation with that id.", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	records := s.studio.Generations()
	out := make([]generationResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newGenerationResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.Media())
}

func (s *Server) handleLocateMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gen := strings.TrimSpace(q.Get("generation"))
	idx, err := strconv.Atoi(q.Get("index"))
	if gen == "" || err != nil {
		s.writeError(w, r, invalidInput("generation and a numeric index are required.", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"index": s.studio.Locate(gen, idx)})
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	s.studio.DismissNotice()
	w.WriteHeader(http.StatusNoContent)
}
