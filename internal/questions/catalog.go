package questions

import "github.com/Unkno394/QuizBattleee/internal/types"

// DefaultCatalog stands in for the out-of-scope question-catalog/LLM
// service with a small fixed "general" topic pool, enough for
// CatalogProvisioner to serve a dev room end to end.
func DefaultCatalog() map[string][]types.Question {
	return map[string][]types.Question{
		"general": {
			{ID: "g1", Text: "What is the capital of France?", Options: []string{"Paris", "Lyon", "Marseille", "Nice"}, CorrectIndex: 0, Difficulty: "easy"},
			{ID: "g2", Text: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 2, Difficulty: "easy"},
			{ID: "g3", Text: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectIndex: 1, Difficulty: "easy"},
			{ID: "g4", Text: "What is the chemical symbol for gold?", Options: []string{"Go", "Gd", "Au", "Ag"}, CorrectIndex: 2, Difficulty: "medium"},
			{ID: "g5", Text: "Who wrote 'Romeo and Juliet'?", Options: []string{"Dickens", "Shakespeare", "Austen", "Tolstoy"}, CorrectIndex: 1, Difficulty: "medium"},
			{ID: "g6", Text: "What is the largest ocean on Earth?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectIndex: 3, Difficulty: "medium"},
			{ID: "g7", Text: "In what year did World War II end?", Options: []string{"1943", "1944", "1945", "1946"}, CorrectIndex: 2, Difficulty: "hard"},
			{ID: "g8", Text: "What is the smallest prime number?", Options: []string{"0", "1", "2", "3"}, CorrectIndex: 2, Difficulty: "hard"},
			{ID: "g9", Text: "Which element has the atomic number 1?", Options: []string{"Helium", "Hydrogen", "Lithium", "Oxygen"}, CorrectIndex: 1, Difficulty: "hard"},
			{ID: "g10", Text: "What is the speed of light approximately, in km/s?", Options: []string{"300,000", "150,000", "1,000,000", "30,000"}, CorrectIndex: 0, Difficulty: "hard"},
		},
	}
}
