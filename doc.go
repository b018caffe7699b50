// Package mosaic provides the shared types for a prompt-to-media studio.
//
// A user submits a text prompt (optionally with a source image) and receives
// AI-generated images or videos rendered as a grid of "generations". The
// generation itself is delegated to hosted models; this module owns the
// orchestration around them.
//
// # Core Interfaces
//
// Providers implement one or more of:
//
//   - [ImageProvider]: Generate images from a text prompt
//   - [ImageEditor]: Generate images conditioned on a source image
//   - [VideoProvider]: Start a long-running video job and check its status
//
// Use the [github.com/spetersoncode/mosaic/gateway] package as the entry
// point for provider access, and the [github.com/spetersoncode/mosaic/studio]
// package for the begin/complete/fail generation lifecycle.
//
// # Basic Usage
//
//	gw := gateway.New(gateway.Config{Settings: prefs})
//	st := studio.New(studio.Config{Gateway: gw})
//
//	job, err := st.GenerateImages(ctx, "a red fox", nil, "")
//	if err != nil {
//	    return err
//	}
//	if err := job.Wait(ctx); err != nil {
//	    log.Printf("generation failed: %v", err)
//	}
//
//	for _, item := range st.Media() {
//	    fmt.Println(item.ID, item.URL)
//	}
//
// # Error Handling
//
// Workflow failures are reported as [*Failure] values carrying a [FailureKind].
// Use [KindOf] to classify an error and [NeedsCredentials] to decide whether
// the user should be prompted for an API key rather than shown a banner.
//
// # Higher-Level Packages
//
//   - [github.com/spetersoncode/mosaic/timeline]: Ordered generation records
//   - [github.com/spetersoncode/mosaic/media]: Flattened cross-generation view
//   - [github.com/spetersoncode/mosaic/poll]: Long-running operation poller
package mosaic
