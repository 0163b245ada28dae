package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpekenin/docker-bot-tasks/internal/model"
)

func TestParseGroupArgs(t *testing.T) {
	languages := []string{"English", "Español"}

	tests := []struct {
		name string
		args []string
		want model.Group
		err  error
	}{
		{
			name: "full arguments",
			args: []string{"English", "true", "GMT+1", "true"},
			want: model.Group{Language: "English", Pokestop: true, Timezone: "GMT+1", Confirmation: true},
		},
		{
			name: "confirmation defaults to off",
			args: []string{"English", "false", "GMT-3"},
			want: model.Group{Language: "English", Timezone: "GMT-3"},
		},
		{
			name: "language casing is canonicalized",
			args: []string{"ESPAÑOL", "true", "GMT+2"},
			want: model.Group{Language: "Español", Pokestop: true, Timezone: "GMT+2"},
		},
		{
			name: "too few arguments",
			args: []string{"English", "true"},
			err:  errGroupUsage,
		},
		{
			name: "unknown language",
			args: []string{"klingon", "true", "GMT+1"},
			err:  errUnknownLanguage,
		},
		{
			name: "pokestop flag is not a bool",
			args: []string{"English", "yes please", "GMT+1"},
			err:  errGroupUsage,
		},
		{
			name: "unknown timezone",
			args: []string{"English", "true", "CET"},
			err:  errUnknownTimezone,
		},
		{
			name: "confirmation flag is not a bool",
			args: []string{"English", "true", "GMT+1", "maybe"},
			err:  errGroupUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := parseGroupArgs(languages, tt.args)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
		})
	}
}
