package hypixel

import "fmt"

// NetworkBingo identifies one network-wide seasonal bingo event. The numeric
// values double as bitset indexes in the network completions cache.
type NetworkBingo uint8

const (
	Anniversary2023 NetworkBingo = iota
	Halloween2023
	Christmas2023
	Easter2024
	Summer2024
	Halloween2024
	Anniversary2025
)

// NetworkBingos lists every known event, oldest first.
var NetworkBingos = [...]NetworkBingo{
	Anniversary2023,
	Halloween2023,
	Christmas2023,
	Easter2024,
	Summer2024,
	Halloween2024,
	Anniversary2025,
}

func (n NetworkBingo) String() string {
	switch n {
	case Anniversary2023:
		return "Anniversary Bingo 2023"
	case Halloween2023:
		return "Halloween Bingo 2023"
	case Christmas2023:
		return "Holiday Bingo 2023"
	case Easter2024:
		return "Easter Bingo 2024"
	case Summer2024:
		return "Summer Bingo 2024"
	case Halloween2024:
		return "Halloween Bingo 2024"
	case Anniversary2025:
		return "Anniversary Bingo 2025"
	}
	return fmt.Sprintf("Network Bingo %d", uint8(n))
}

type difficulty string

const (
	difficultyEasy   difficulty = "easy"
	difficultyMedium difficulty = "medium"
	difficultyHard   difficulty = "hard"
)

type cardType string

const (
	cardCasual  cardType = "casual"
	cardPvP     cardType = "pvp"
	cardClassic cardType = "classic"
)

// networkBingoCompletions scans a player's seasonal stats for fully
// completed network bingos. Detection differs per event: most expose a
// "black_out" reward per difficulty, the 2023 anniversary predates rewards
// and is matched against its known goal counts, and the 2025 anniversary
// splits each difficulty into card types of which any one counts.
func networkBingoCompletions(seasonal map[string]any) []NetworkBingo {
	checks := []struct {
		completed bool
		bingo     NetworkBingo
	}{
		// The anniversary 2023 stats sit under a key with a leading space.
		{anniversary2023Completed(jsonPath(seasonal, "anniversary", " 2023", "bingo")), Anniversary2023},
		{hasAllDifficulties(jsonPath(seasonal, "halloween", "2023", "bingo")), Halloween2023},
		{hasAllDifficulties(jsonPath(seasonal, "christmas", "2023", "bingo")), Christmas2023},
		{hasAllDifficulties(jsonPath(seasonal, "easter", "2024", "bingo")), Easter2024},
		{hasAllDifficulties(jsonPath(seasonal, "summer", "2024", "bingo")), Summer2024},
		{hasAllDifficulties(jsonPath(seasonal, "halloween", "2024", "bingo")), Halloween2024},
		{hasAnyDifficultyPair(jsonPath(seasonal, "easter", "2025", "bingo")), Anniversary2025},
	}

	var bingos []NetworkBingo
	for _, check := range checks {
		if check.completed {
			bingos = append(bingos, check.bingo)
		}
	}
	return bingos
}

func hasAllDifficulties(bingoDoc any) bool {
	for _, diff := range []difficulty{difficultyEasy, difficultyMedium, difficultyHard} {
		if !hasBlackout(bingoDoc, string(diff)) {
			return false
		}
	}
	return true
}

func hasAnyDifficultyPair(bingoDoc any) bool {
	for _, diff := range []difficulty{difficultyEasy, difficultyHard} {
		found := false
		for _, card := range []cardType{cardCasual, cardPvP, cardClassic} {
			if hasBlackout(bingoDoc, fmt.Sprintf("%s_%s", card, diff)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasBlackout(bingoDoc any, key string) bool {
	doc, ok := bingoDoc.(map[string]any)
	if !ok {
		return false
	}
	rewards, _ := jsonPath(doc, key, "rewards").([]any)
	for _, reward := range rewards {
		if reward == "black_out" {
			return true
		}
	}
	return false
}

// anniversary2023Completed matches the player's objectives against the goal
// counts of the one event that never exposed rewards on the API.
func anniversary2023Completed(bingoDoc any) bool {
	doc, ok := bingoDoc.(map[string]any)
	if !ok {
		return false
	}
	for diff, expected := range anniversary2023Goals {
		objectives, _ := jsonPath(doc, string(diff), "objectives").(map[string]any)
		if len(objectives) != len(expected) {
			return false
		}
		for name, count := range expected {
			got, ok := jsonNumber(objectives[name])
			if !ok || got != count {
				return false
			}
		}
	}
	return true
}

var anniversary2023Goals = map[difficulty]map[string]int64{
	difficultyEasy: {
		"Blitzchests":             5,
		"Cvcthrowprojectile":      1,
		"Pitkill":                 1,
		"Arenaultimate":           1,
		"Wizardscapture":          1,
		"Arcadekillcreeper":       2,
		"Smashthrowoff":           1,
		"Maincatchfish":           25,
		"Vampzvampirekill":        1,
		"Tntrunsurviveminute":     1,
		"Wallswoodpickaxe":        1,
		"Arcadezombiesdoor":       1,
		"Tkrcollectbox":           1,
		"Wwplacewool":             1,
		"Bbguess":                 1,
		"Arcadeblockingdeadkills": 20,
		"Skywarsvoidkill":         1,
		"Megawallsdefense":        1,
		"Quakedash":               1,
		"Bedwarsdiamond":          1,
		"Pixelpartysurvive":       3,
		"Tnttagplayer":            1,
		"Pbpowerup":               1,
		"Murderbowgold":           1,
		"Arcadehiderdamage":       1,
	},
	difficultyMedium: {
		"Arcadetwowithers":    2,
		"Bedwarsemerald":      1,
		"Blitzshutdown":       1,
		"Pvprunkill":          1,
		"Vampzsurvivorkill":   1,
		"Skywarsdiamondarmor": 1,
		"Tkrbanana":           1,
		"Arcadedragonkill":    1,
		"Wwflawless":          1,
		"Arcadesupplychests":  6,
		"Warlordsdamageflag":  1,
		"Arcadetop3round":     1,
		"Pbtntrain":           1,
		"Bowspleefsurvivetwo": 1,
		"Maincatchtreasure":   15,
		"Arcademegapunch":     1,
		"Arenabuffs":          2,
		"Quakeheadshot":       1,
		"Megawallsfinaltwo":   1,
		"Cvcclosecall":        1,
		"Pitpickupgold":       10,
		"Arcadehitwperfect":   1,
		"Murderkillmurderer":  1,
		"Smashnemesis":        1,
		"Duelsparkour3rd":     1,
	},
	difficultyHard: {
		"Murderstreak":         10,
		"Blitzstar":            1,
		"Smashtwolives":        1,
		"Arcadehiderpro":       3,
		"Bedwarsemeraldhoarder": 10,
		"Bbfastguess":          1,
		"Arcadewoolcarrier":    1,
		"Quake5streak":         1,
		"Wwnoenemywool":        1,
		"Arcadeenderspleef":    1,
		"Cvcallaround":         1,
		"Wallsdiamond":         1,
		"Skywarschallenge":     1,
		"Bedwarsflawless":      1,
		"Arcadedontmove":       1,
		"Arcadehypixelsays":    1,
		"Arcadezombies25":      1,
		"Vampzsurvive":         1,
		"Arcadebountyhunters":  1,
		"Warlordscapture":      1,
		"Arcadehelp":           1,
		"Wizardslandslide":     1,
		"Bbtop3":               1,
		"Megawallsfinal":       1,
		"Pbnuke":               1,
	},
}
