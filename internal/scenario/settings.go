package scenario

import "fmt"

const (
	MinPlayerCount = 2
	MaxPlayerCount = 10
)

// DefaultSettings returns the settings a fresh scenario starts with.
func DefaultSettings(compatibilityVersion int) Settings {
	return Settings{
		Name:                 "",
		DisplayName:          "",
		DisplayVersion:       "1.0",
		Skybox:               DefaultSkybox,
		PlayerCount:          MinPlayerCount,
		CompatibilityVersion: compatibilityVersion,
		Grid: GridSettings{
			Visible: true,
			Snap:    false,
			Size:    250,
		},
	}
}

// TeamCountOptions returns the valid team counts for a player count:
// 0 for free-for-all, plus every divisor that leaves at least two players
// per team.
func TeamCountOptions(playerCount int) []int {
	options := []int{0}
	for teams := 2; teams <= playerCount/2; teams++ {
		if playerCount%teams == 0 {
			options = append(options, teams)
		}
	}
	return options
}

// ValidateSettings checks the global scenario configuration. TeamCount
// may be nil (not yet chosen); export gating requires an explicit choice,
// editing does not.
func ValidateSettings(s Settings) error {
	if s.PlayerCount < MinPlayerCount || s.PlayerCount > MaxPlayerCount {
		return fmt.Errorf("%w: player count %d out of range [%d, %d]", ErrInvalidSettings, s.PlayerCount, MinPlayerCount, MaxPlayerCount)
	}

	if s.TeamCount != nil {
		valid := false
		for _, option := range TeamCountOptions(s.PlayerCount) {
			if *s.TeamCount == option {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: team count %d is not valid for %d players", ErrInvalidSettings, *s.TeamCount, s.PlayerCount)
		}
	}

	return nil
}
