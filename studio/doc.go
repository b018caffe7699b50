// Package studio runs the generation workflows: text-to-image, text-to-video,
// image-to-video and improve-image.
//
// Each workflow begins a placeholder in the timeline synchronously, then runs
// the provider call (and, for videos, the status poller) on its own goroutine.
// The job ends in exactly one Complete or Fail; failures remove the
// placeholder and raise a [Notice]. Cancellation counts as a failure.
//
//	st := studio.New(studio.Config{Gateway: gw})
//	job, err := st.GenerateImages(ctx, "a red fox", nil, "")
//	if err != nil {
//	    return err // rejected before anything was begun
//	}
//	if err := job.Wait(ctx); err != nil {
//	    log.Printf("generation failed: %v", err)
//	}
//
// Jobs run on a context detached from the caller, so an HTTP request that
// starts a generation can return immediately.
package studio
