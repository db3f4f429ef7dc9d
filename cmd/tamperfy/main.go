// Package main provides the entry point for the tamperfy CLI.
//
// tamperfy scores uploaded images for tampering and captions for
// manipulative language, the way a moderation backend would before
// publishing a post.
//
// Usage:
//
//	tamperfy image photo.jpg
//	tamperfy text "You won't believe this!!!"
//	tamperfy scan --dir uploads/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
