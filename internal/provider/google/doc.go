// Package google is the primary generation provider, backed by the Gemini API.
//
// Three model families are used:
//
//   - Imagen (text-to-image, up to four images per call)
//   - Gemini image models (image-conditioned generation, one image per call)
//   - Veo (video, as a long-running operation polled by name)
//
// Errors from the SDK are categorized so transient failures can be retried.
package google
