package bingo

import "testing"

func TestTeamNameRoundTrip(t *testing.T) {
	for _, team := range AllTeams() {
		if got := ParseTeam(team.Name()); got != team {
			t.Errorf("ParseTeam(%q) = %v, want %v", team.Name(), got, team)
		}
	}
}

func TestParseTeam(t *testing.T) {
	cases := []struct {
		name string
		want Team
	}{
		{"red", TeamRed},
		{"RED", TeamRed},
		{" navy ", TeamNavy},
		{"", TeamBlank},
		{"blank", TeamBlank},
		{"chartreuse", TeamBlank},
	}
	for _, tc := range cases {
		if got := ParseTeam(tc.name); got != tc.want {
			t.Errorf("ParseTeam(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseTeams(t *testing.T) {
	teams := ParseTeams("red blue purple")
	want := []Team{TeamRed, TeamBlue, TeamPurple}
	if len(teams) != len(want) {
		t.Fatalf("ParseTeams = %v, want %v", teams, want)
	}
	for i := range want {
		if teams[i] != want[i] {
			t.Errorf("teams[%d] = %v, want %v", i, teams[i], want[i])
		}
	}

	if got := ParseTeams(""); len(got) != 0 {
		t.Errorf("ParseTeams(\"\") = %v, want empty", got)
	}
	// Unknown names are dropped, not errors.
	if got := ParseTeams("red mauve"); len(got) != 1 || got[0] != TeamRed {
		t.Errorf("ParseTeams(\"red mauve\") = %v, want [red]", got)
	}
}

func TestTeamFlagsAreDistinct(t *testing.T) {
	seen := Team(0)
	for _, team := range AllTeams() {
		if team == TeamBlank {
			t.Fatalf("AllTeams includes blank")
		}
		if seen&team != 0 {
			t.Fatalf("team %v overlaps a previous flag", team)
		}
		seen |= team
	}
}

func TestTeamHexColor(t *testing.T) {
	if got := TeamRed.HexColor(); got != "#FF4944" {
		t.Errorf("red hex = %q", got)
	}
	if got := TeamBlank.HexColor(); got != "#FFFFFF" {
		t.Errorf("blank hex = %q", got)
	}
}
