package pageprobe

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockable maps config names to CDP resource types.
var blockable = map[string]proto.NetworkResourceType{
	"images": proto.NetworkResourceTypeImage,
	"fonts":  proto.NetworkResourceTypeFont,
	"media":  proto.NetworkResourceTypeMedia,
}

// blockResources fails requests for the configured resource kinds. The
// returned router must be stopped when the page closes.
func blockResources(page *rod.Page, kinds []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]bool)
	for _, k := range kinds {
		if t, ok := blockable[strings.ToLower(strings.TrimSpace(k))]; ok {
			blocked[t] = true
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocked[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
