// Package openai is the secondary generation provider, backed by the OpenAI
// Images API (gpt-image and DALL-E models). It has no video support.
package openai
