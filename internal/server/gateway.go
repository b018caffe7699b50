package server

import (
	"net/http"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/gateway"
)

type generateImageRequest struct {
	Prompt      string `json:"prompt"`
	APIKey      string `json:"apiKey"`
	SourceImage string `json:"sourceImage"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
}

type imagesResponse struct {
	Success        bool           `json:"success"`
	Items          []ai.ImageItem `json:"items"`
	EnhancedPrompt string         `json:"enhancedPrompt,omitempty"`
}

type generateVideoRequest struct {
	Prompt      string `json:"prompt"`
	APIKey      string `json:"apiKey"`
	SourceImage string `json:"sourceImage"`
}

type videoStatusRequest struct {
	Operation *ai.VideoOperation `json:"operation"`
	APIKey    string             `json:"apiKey"`
}

type videoResponse struct {
	Success   bool               `json:"success"`
	Done      bool               `json:"done"`
	Operation *ai.VideoOperation `json:"operation"`
	Videos    []string           `json:"videos,omitempty"`
}

type improveImageRequest struct {
	OriginalPrompt    string `json:"originalPrompt"`
	ImprovementPrompt string `json:"improvementPrompt"`
	SourceImage       string `json:"sourceImage"`
	APIKey            string `json:"apiKey"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
}

// sourceImage decodes an optional data URI or base64 payload.
func sourceImage(s string) ([]byte, string, error) {
	if s == "" {
		return nil, "", nil
	}
	data, mime, err := ai.DecodeImage(s)
	if err != nil {
		return nil, "", invalidInput("The source image could not be read.", err)
	}
	return data, mime, nil
}

func parseProvider(s string) (ai.Provider, error) {
	if s == "" {
		return "", nil
	}
	p, err := ai.ParseProvider(s)
	if err != nil {
		return "", invalidInput("Unknown provider.", err)
	}
	return p, nil
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := parseProvider(req.Provider)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	src, mime, err := sourceImage(req.SourceImage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.gateway.RequestImages(r.Context(), gateway.Request{
		Prompt:      req.Prompt,
		APIKey:      req.APIKey,
		Provider:    p,
		Model:       req.Model,
		SourceImage: src,
		SourceMIME:  mime,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imagesResponse{Success: true, Items: res.Items, EnhancedPrompt: res.EnhancedPrompt})
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req generateVideoRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	src, mime, err := sourceImage(req.SourceImage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	greq := gateway.Request{Prompt: req.Prompt, APIKey: req.APIKey, SourceImage: src, SourceMIME: mime}
	var op *ai.VideoOperation
	if src != nil {
		op, err = s.gateway.RequestImageToVideo(r.Context(), greq)
	} else {
		op, err = s.gateway.RequestVideos(r.Context(), greq)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videoBody(op))
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	var req videoStatusRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Operation == nil || req.Operation.Name == "" {
		s.writeError(w, r, invalidInput("An operation is required.", nil))
		return
	}

	op, err := s.gateway.CheckVideo(r.Context(), req.Operation, req.APIKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videoBody(op))
}

func videoBody(op *ai.VideoOperation) videoResponse {
	resp := videoResponse{Success: true, Done: op.Done, Operation: op}
	if op.Done {
		resp.Videos = op.VideoURLs()
	}
	return resp
}

func (s *Server) handleImproveImage(w http.ResponseWriter, r *http.Request) {
	var req improveImageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := parseProvider(req.Provider)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	src, mime, err := sourceImage(req.SourceImage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.gateway.RequestImageImprovement(r.Context(), gateway.ImproveRequest{
		OriginalPrompt:    req.OriginalPrompt,
		ImprovementPrompt: req.ImprovementPrompt,
		SourceImage:       src,
		SourceMIME:        mime,
		APIKey:            req.APIKey,
		Provider:          p,
		Model:             req.Model,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imagesResponse{Success: true, Items: res.Items, EnhancedPrompt: res.EnhancedPrompt})
}
