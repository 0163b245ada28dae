package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

func TestStripShiny(t *testing.T) {
	assert.Equal(t, "Larvitar", StripShiny("Larvitar✨"))
	assert.Equal(t, "Larvitar", StripShiny(" Larvitar "))
	assert.Equal(t, "Larvitar", StripShiny("Larvitar"))
	assert.Equal(t, "", StripShiny("✨"))
}

func TestRewardTokens(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{
			name:   "single reward",
			answer: "Larvitar✨, Catch 3 dragon-type Pokemon",
			want:   []string{"Larvitar✨"},
		},
		{
			name:   "multiple candidates",
			answer: "Magikarp✨/Dratini, Make an excellent throw",
			want:   []string{"Magikarp✨", "Dratini"},
		},
		{
			name:   "cp line does not leak into rewards",
			answer: "Larvitar, Catch 3 dragon-type Pokemon\n💯: 842",
			want:   []string{"Larvitar"},
		},
		{
			name:   "no comma keeps whole text as one token",
			answer: "Larvitar",
			want:   []string{"Larvitar"},
		},
		{
			name:   "empty answer has no tokens",
			answer: "",
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewardTokens(tt.answer))
		})
	}
}

func TestShinyMarkerRoundTrip(t *testing.T) {
	// A label rendered by the catalog must parse back into tokens that,
	// stripped, equal the stored rewards.
	label := MultiTaskLabel(model.MultiTask{
		Task:    "Make an excellent throw",
		Rewards: []string{"Magikarp", "Dratini"},
		Shiny:   []bool{true, false},
	})
	tokens := RewardTokens(label)
	assert.Equal(t, []string{"Magikarp✨", "Dratini"}, tokens)
	assert.Equal(t, "Magikarp", StripShiny(tokens[0]))
	assert.Equal(t, "Dratini", StripShiny(tokens[1]))
}

func TestIsCancel(t *testing.T) {
	assert.True(t, IsCancel(CancelRow))
	assert.True(t, IsCancel("Cancel"))
	assert.False(t, IsCancel("Larvitar, Catch 3 dragon-type Pokemon"))
}

func TestTaskLabel(t *testing.T) {
	got := TaskLabel(model.Task{
		Task:   "Catch 3 dragon-type Pokemon",
		Reward: "Larvitar",
		CP:     842,
		Shiny:  true,
	})
	assert.Equal(t, "Larvitar✨, Catch 3 dragon-type Pokemon\n💯: 842", got)

	got = TaskLabel(model.Task{Task: "Spin 5 Pokestops", Reward: "Rare Candy"})
	assert.Equal(t, "Rare Candy, Spin 5 Pokestops", got)
}
