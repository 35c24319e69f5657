// Package outbox owns the lifecycle of operator-initiated sends:
// immediate local visibility, network dispatch, and reconciliation or
// failure with manual retry.
package outbox

import (
	"strings"

	"github.com/apexmgmt/fansync/internal/platform"
)

// maxTextLen mirrors the platform's message size limit; oversize text
// is rejected locally before a doomed dispatch.
const maxTextLen = 5000

// Input is the payload as callers hand it over. Callers may supply a
// bare string via Text or a structured payload; either way it is
// normalized once at this boundary and nothing downstream branches on
// shape again.
type Input struct {
	Text      string
	MediaRefs []string
	Price     int64
}

// Text wraps a bare string payload.
func Text(s string) Input {
	return Input{Text: s}
}

// Normalize validates and canonicalizes an input payload. Violations
// are classified as validation errors.
func Normalize(in Input) (platform.SendPayload, error) {
	text := strings.TrimSpace(in.Text)
	if len(text) > maxTextLen {
		return platform.SendPayload{}, platform.NewError(platform.KindValidation,
			"message text exceeds %d characters", maxTextLen)
	}

	refs := normalizeMediaRefs(in.MediaRefs)

	if text == "" && len(refs) == 0 {
		return platform.SendPayload{}, platform.NewError(platform.KindValidation, "empty payload")
	}

	if in.Price < 0 {
		return platform.SendPayload{}, platform.NewError(platform.KindValidation, "negative price")
	}
	// The platform requires media on pay-per-view sends.
	if in.Price > 0 && len(refs) == 0 {
		return platform.SendPayload{}, platform.NewError(platform.KindValidation,
			"price requires at least one media attachment")
	}

	return platform.SendPayload{Text: text, MediaRefs: refs, Price: in.Price}, nil
}

// normalizeMediaRefs trims and de-dupes vault identifiers, preserving
// order. Refs are opaque; no validation beyond present-or-absent.
func normalizeMediaRefs(refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
