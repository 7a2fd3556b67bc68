package reward

// Minimum payouts. Every qualifying action yields a nonzero reward.
const (
	MinBenchmarkReward = 0.1   // Floor for a benchmark run, in tokens
	MinMiningCoins     = 0.001 // Floor for a mining session, in coins
)

// difficultyMultipliers maps a difficulty tag to its reward multiplier.
// Unrecognized tags fall back to 1.0.
var difficultyMultipliers = map[string]float64{
	"easy":   1.0,
	"medium": 1.5,
	"hard":   2.0,
}

// DifficultyMultiplier returns the reward multiplier for a difficulty tag
func DifficultyMultiplier(difficulty string) float64 {
	if m, ok := difficultyMultipliers[difficulty]; ok {
		return m
	}
	return 1.0 // Unknown difficulty
}

// BenchmarkReward computes the token reward for one benchmark run.
// reward = score * baseRate * difficultyMultiplier / 1000, floored at 0.1.
func BenchmarkReward(score float64, difficulty string, baseRate float64) float64 {
	tokens := score * baseRate * DifficultyMultiplier(difficulty) / 1000
	if tokens < MinBenchmarkReward {
		return MinBenchmarkReward
	}
	return tokens
}

// MiningCoins computes the cumulative coins for a session's lifetime
// telemetry. coins = hashRate * duration / 1,000,000, floored at 0.001.
func MiningCoins(hashRate, duration float64) float64 {
	coins := hashRate * duration / 1000000
	if coins < MinMiningCoins {
		return MinMiningCoins
	}
	return coins
}

// MiningReward computes the cumulative (coins, tokens) pair for a session.
// Tokens are coins scaled by the configured mining reward rate.
func MiningReward(hashRate, duration, rewardRate float64) (coins, tokens float64) {
	coins = MiningCoins(hashRate, duration)
	tokens = coins * rewardRate
	return coins, tokens
}
