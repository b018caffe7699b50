// Package model provides the image and video model catalog for supported providers.
//
// Models know their provider, how many results a single call can return, and
// their pricing, so the gateway can choose between one batched call and a
// concurrent fan-out of single-result calls.
//
// # Resolving a Model
//
// A user's modelVariant setting is honored when it names a model of the
// selected provider; otherwise the provider default applies:
//
//	m, ok := model.ResolveImage(mosaic.ProviderGoogle, prefs.ModelVariant, false)
//	if ok && m.MaxPerCall() >= 4 {
//	    // one call returns the whole batch
//	}
//
// Video generation is only offered by Google (Veo).
package model
