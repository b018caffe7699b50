// Package agui streams studio state to browsers over the AG-UI protocol.
//
// A feed connection is one long-lived AG-UI run. It opens with RUN_STARTED
// and a STATE_SNAPSHOT of {generations, media, notice}, then sends a fresh
// snapshot whenever the timeline changes or a notice is raised. Generation
// lifecycle events map onto steps:
//
//   - event.RunStart → STEP_STARTED
//   - event.RunEnd → STEP_FINISHED
//   - event.RunError → RUN_ERROR with the failure kind as code
//   - event.PollAttempt, event.Retry → CUSTOM
//
// Use [SSESink] to write the feed as Server-Sent Events:
//
//	sink, err := agui.SSESink(w)
//	if err != nil { ... }
//	changes, unsubscribe := st.Timeline().Subscribe()
//	defer unsubscribe()
//	feed := &agui.Feed{Source: st, Changes: changes, Events: evs}
//	feed.Run(r.Context(), sink)
//
// A Mapper is not safe for concurrent use; create one per connection.
package agui
