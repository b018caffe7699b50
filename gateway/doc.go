// Package gateway translates generation intents into exactly one normalized
// outcome: images, a pending video operation, or a [mosaic.Failure].
//
// Credentials are resolved per call. An explicit API key on the request takes
// precedence over the stored one; when neither exists the call fails with
// MissingCredentials before any network traffic.
//
// # Image batches
//
// A request asks for [DefaultImageCount] images. Models that can return
// several images per call (Imagen, gpt-image) get as few calls as possible;
// single-image models (Gemini image, DALL-E 3) get one concurrent call per
// image. Failed or empty calls are dropped, and a batch with zero usable
// images is NoContentGenerated.
//
//	gw := gateway.New(gateway.Config{Settings: prefs})
//	res, err := gw.RequestImages(ctx, gateway.Request{Prompt: "a red fox"})
//	if err != nil {
//	    log.Printf("%s: %v", mosaic.KindOf(err), err)
//	}
//
// # Videos
//
// Video requests return an [mosaic.VideoOperation] handle. Drive it with
// [Gateway.CheckVideo], usually through the poll package.
//
// # Retries
//
// Provider calls are retried on transient errors according to
// [Config.RetryConfig]. Status checks are never retried.
package gateway
