package aggregate

// EngagementSentinel marks an engagement that cannot be computed because
// the follower count is missing or zero. Division never happens in that
// case; readers must treat the sentinel as "not computable", not as a
// score.
const EngagementSentinel = -1.0

// Engagement returns the interaction rate of a post relative to the
// account's audience, as a percentage.
func Engagement(likes, comments int, followers int64) float64 {
	if followers <= 0 {
		return EngagementSentinel
	}
	return float64(likes+comments) / float64(followers) * 100
}
