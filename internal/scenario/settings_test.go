package scenario

import (
	"errors"
	"reflect"
	"testing"
)

func TestTeamCountOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		players int
		want    []int
	}{
		{players: 2, want: []int{0}},
		{players: 3, want: []int{0}},
		{players: 4, want: []int{0, 2}},
		{players: 6, want: []int{0, 2, 3}},
		{players: 8, want: []int{0, 2, 4}},
		{players: 10, want: []int{0, 2, 5}},
	}
	for _, tt := range tests {
		if got := TeamCountOptions(tt.players); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("TeamCountOptions(%d) = %v, want %v", tt.players, got, tt.want)
		}
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	base := DefaultSettings(2)

	t.Run("defaults are valid", func(t *testing.T) {
		if err := ValidateSettings(base); err != nil {
			t.Errorf("ValidateSettings(defaults) = %v", err)
		}
	})

	t.Run("player count range", func(t *testing.T) {
		for _, players := range []int{0, 1, 11} {
			s := base
			s.PlayerCount = players
			if err := ValidateSettings(s); !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("players=%d error = %v, want %v", players, err, ErrInvalidSettings)
			}
		}
	})

	t.Run("team count must match an option", func(t *testing.T) {
		s := base
		s.PlayerCount = 6
		for _, teams := range []int{0, 2, 3} {
			v := teams
			s.TeamCount = &v
			if err := ValidateSettings(s); err != nil {
				t.Errorf("teams=%d rejected: %v", teams, err)
			}
		}
		bad := 4
		s.TeamCount = &bad
		if err := ValidateSettings(s); !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("teams=4 for 6 players error = %v, want %v", err, ErrInvalidSettings)
		}
	})

	t.Run("nil team count allowed while editing", func(t *testing.T) {
		s := base
		s.TeamCount = nil
		if err := ValidateSettings(s); err != nil {
			t.Errorf("nil team count rejected: %v", err)
		}
	})
}
