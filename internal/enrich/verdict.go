package enrich

import "strings"

// Verdict is the leading token of an image-authenticity result. Callers parse
// only this token; any trailing text is free-form explanation.
type Verdict string

const (
	VerdictVerified   Verdict = "VERIFIED"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictRejected   Verdict = "REJECTED"
)

// ParseVerdict splits a raw model response into the leading verdict token and
// the remaining explanation. Anything unrecognized is REJECTED: an
// unparseable authenticity answer must not pass content through.
//
// Note: downstream maps SUSPICIOUS to the "pending" report status rather than
// a dedicated one, conflating "not yet reviewed" with "flagged". That mirrors
// the platform's moderation flow, where both land in the same review queue.
func ParseVerdict(raw string) (Verdict, string) {
	trimmed := strings.TrimSpace(raw)
	token, rest, _ := strings.Cut(trimmed, " ")
	explanation := strings.TrimSpace(strings.TrimPrefix(rest, "-"))

	switch Verdict(strings.ToUpper(strings.TrimSuffix(token, ":"))) {
	case VerdictVerified:
		return VerdictVerified, explanation
	case VerdictSuspicious:
		return VerdictSuspicious, explanation
	case VerdictRejected:
		return VerdictRejected, explanation
	default:
		return VerdictRejected, trimmed
	}
}
