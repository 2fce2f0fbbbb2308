package scraper

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to Rod protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// blockedSet turns config names into a lookup set keyed by protocol type.
// Unknown names are ignored.
func blockedSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[name]; ok {
			set[string(rt)] = struct{}{}
		}
	}
	return set
}

// shouldBlock reports whether a request of type rt is dropped.
func shouldBlock(blocked map[string]struct{}, rt proto.NetworkResourceType) bool {
	_, ok := blocked[string(rt)]
	return ok
}

// setupHijack installs a request interceptor that fails every request whose
// resource type is in blocked and lets the rest through.
//
// Returns the running router so the caller can defer router.Stop(), or nil
// when nothing is blocked.
func setupHijack(page *rod.Page, blocked map[string]struct{}) *rod.HijackRouter {
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if shouldBlock(blocked, ctx.Request.Type()) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run blocks until router.Stop is called.
	go router.Run()

	return router
}
