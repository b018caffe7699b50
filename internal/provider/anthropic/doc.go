// Package anthropic rewrites image improvement requests with Claude.
//
// The studio's improve workflow sends the original prompt and the user's
// requested change; this package returns a single merged prompt that the
// image provider then renders.
//
//	enhancer := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//	prompt, err := enhancer.EnhancePrompt(ctx, "a red fox", "make it snowy")
package anthropic
