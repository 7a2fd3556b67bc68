package reward_test

import (
	"math"
	"testing"

	"mining_rewards/internal/reward"
)

func TestBenchmarkReward(t *testing.T) {
	// score=800, hard, baseRate=0.5 -> 800*0.5*2.0/1000 = 0.8
	got := reward.BenchmarkReward(800, "hard", 0.5)
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Expected 0.8 tokens, got %f", got)
	}

	// medium multiplier is 1.5
	got = reward.BenchmarkReward(1000, "medium", 0.5)
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Expected 0.75 tokens, got %f", got)
	}

	// unknown difficulty falls back to 1.0
	easy := reward.BenchmarkReward(1000, "easy", 0.5)
	unknown := reward.BenchmarkReward(1000, "nightmare", 0.5)
	if easy != unknown {
		t.Errorf("Unknown difficulty should match easy: %f vs %f", easy, unknown)
	}
}

func TestBenchmarkRewardFloor(t *testing.T) {
	for _, d := range []string{"easy", "medium", "hard", "bogus"} {
		got := reward.BenchmarkReward(1, d, 0.5)
		if got < 0.1 {
			t.Errorf("Reward for difficulty %q below floor: %f", d, got)
		}
		if got != 0.1 {
			t.Errorf("Tiny score should hit the 0.1 floor for %q, got %f", d, got)
		}
	}
}

func TestMiningReward(t *testing.T) {
	// hashRate=500000, duration=10 -> 500000*10/1e6 = 5.0 coins
	coins, tokens := reward.MiningReward(500000, 10, 1.0)
	if math.Abs(coins-5.0) > 1e-9 {
		t.Errorf("Expected 5.0 coins, got %f", coins)
	}
	if math.Abs(tokens-5.0) > 1e-9 {
		t.Errorf("Expected 5.0 tokens at rate 1.0, got %f", tokens)
	}

	// token reward scales with the configured rate
	_, tokens = reward.MiningReward(500000, 10, 2.0)
	if math.Abs(tokens-10.0) > 1e-9 {
		t.Errorf("Expected 10.0 tokens at rate 2.0, got %f", tokens)
	}
}

func TestMiningRewardFloor(t *testing.T) {
	coins, _ := reward.MiningReward(1, 1, 1.0)
	if coins != 0.001 {
		t.Errorf("Tiny session should hit the 0.001 coin floor, got %f", coins)
	}
}

func TestDifficultyMultiplier(t *testing.T) {
	cases := map[string]float64{
		"easy":    1.0,
		"medium":  1.5,
		"hard":    2.0,
		"unknown": 1.0,
		"":        1.0,
	}
	for d, want := range cases {
		if got := reward.DifficultyMultiplier(d); got != want {
			t.Errorf("Multiplier for %q: expected %f, got %f", d, want, got)
		}
	}
}
