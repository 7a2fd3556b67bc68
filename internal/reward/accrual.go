package reward

// AccrualDelta derives the incremental amounts to credit for a mining
// session update. Clients report cumulative lifetime totals, so the amount
// owed is the difference against what was already recorded for the session.
//
// A negative difference (stale or replayed telemetry reporting a smaller
// cumulative value) is clamped to zero: a session's credited reward must
// never decrease, and clamping here is the guard. The stored cumulative
// value is not rolled back.
func AccrualDelta(prevCoins, prevTokens, newCoins, newTokens float64) (coinsDelta, tokensDelta float64) {
	coinsDelta = newCoins - prevCoins
	if coinsDelta < 0 {
		coinsDelta = 0
	}
	tokensDelta = newTokens - prevTokens
	if tokensDelta < 0 {
		tokensDelta = 0
	}
	return coinsDelta, tokensDelta
}
