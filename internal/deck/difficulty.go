package deck

// DifficultyConfig maps a difficulty id to the probability that a bot
// deliberately plays a random move instead of a correct one.
type DifficultyConfig struct {
	ID          string
	Name        string
	Description string
	ErrorRate   float64
}

var Difficulties = []DifficultyConfig{
	{ID: "easy", Name: "Easy", Description: "The bot blunders half the time", ErrorRate: 0.5},
	{ID: "normal", Name: "Normal", Description: "The bot blunders 30% of the time", ErrorRate: 0.3},
	{ID: "hard", Name: "Hard", Description: "The bot blunders 10% of the time", ErrorRate: 0.1},
	{ID: "expert", Name: "Expert", Description: "The bot never blunders", ErrorRate: 0},
}

// ErrorRate returns the error probability for a difficulty id; unknown ids
// fall back to normal.
func ErrorRate(id string) float64 {
	for _, d := range Difficulties {
		if d.ID == id {
			return d.ErrorRate
		}
	}
	return 0.3
}
