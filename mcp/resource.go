package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	mediaURI  = "mosaic://media"
	noticeURI = "mosaic://notice"
)

var (
	mediaResource = mcp.NewResource(mediaURI, "media",
		mcp.WithResourceDescription("Every completed image and video, newest first, with item ids"),
		mcp.WithMIMEType("application/json"),
	)

	noticeResource = mcp.NewResource(noticeURI, "notice",
		mcp.WithResourceDescription("The most recent failure notice, or null"),
		mcp.WithMIMEType("application/json"),
	)
)

func (h *handlers) readMedia(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	items := h.studio.Media()
	out := make([]ItemSummary, 0, len(items))
	for _, it := range items {
		is := ItemSummary{ID: it.ID, IsSample: it.IsSample}
		if !it.HasBytes() {
			is.URL = it.URL
		}
		out = append(out, is)
	}
	return jsonContents(mediaURI, out)
}

func (h *handlers) readNotice(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	n, ok := h.studio.Notice()
	if !ok {
		return jsonContents(noticeURI, nil)
	}
	return jsonContents(noticeURI, n)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}
