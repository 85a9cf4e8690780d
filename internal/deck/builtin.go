package deck

import "chronoline/internal/engine"

// Builtin returns the catalogue shipped with the binary, used when no
// decks.yaml is present. Years follow the Card convention: negative is BCE.
func Builtin() *Catalogue {
	events := []engine.Card{
		{ID: 1, Name: "Great Pyramid of Giza completed", Year: -2560},
		{ID: 2, Name: "Code of Hammurabi written", Year: -1754},
		{ID: 3, Name: "Trojan War ends", Year: -1184},
		{ID: 4, Name: "First recorded Olympic Games", Year: -776},
		{ID: 5, Name: "Founding of Rome", Year: -753},
		{ID: 6, Name: "Birth of Confucius", Year: -551},
		{ID: 7, Name: "Battle of Marathon", Year: -490},
		{ID: 8, Name: "Parthenon completed", Year: -432},
		{ID: 9, Name: "Death of Alexander the Great", Year: -323},
		{ID: 10, Name: "Great Wall of China begun", Year: -221},
		{ID: 11, Name: "Julius Caesar assassinated", Year: -44},
		{ID: 12, Name: "Vesuvius buries Pompeii", Year: 79},
		{ID: 13, Name: "Constantinople founded", Year: 330},
		{ID: 14, Name: "Fall of the Western Roman Empire", Year: 476},
		{ID: 15, Name: "Hagia Sophia completed", Year: 537},
		{ID: 16, Name: "Charlemagne crowned emperor", Year: 800},
		{ID: 17, Name: "Norman conquest of England", Year: 1066},
		{ID: 18, Name: "Magna Carta sealed", Year: 1215},
		{ID: 19, Name: "Marco Polo reaches China", Year: 1275},
		{ID: 20, Name: "Black Death reaches Europe", Year: 1347},
		{ID: 21, Name: "Gutenberg prints the Bible", Year: 1455},
		{ID: 22, Name: "Columbus reaches the Americas", Year: 1492},
		{ID: 23, Name: "Magellan expedition circles the globe", Year: 1522},
		{ID: 24, Name: "Shakespeare writes Hamlet", Year: 1601},
		{ID: 25, Name: "Newton publishes the Principia", Year: 1687},
		{ID: 26, Name: "United States declares independence", Year: 1776},
		{ID: 27, Name: "French Revolution begins", Year: 1789},
		{ID: 28, Name: "First passenger railway opens", Year: 1825},
		{ID: 29, Name: "Darwin publishes On the Origin of Species", Year: 1859},
		{ID: 30, Name: "First transatlantic telegraph cable", Year: 1866},
		{ID: 31, Name: "Eiffel Tower completed", Year: 1889},
		{ID: 32, Name: "Wright brothers' first flight", Year: 1903},
		{ID: 33, Name: "World War I begins", Year: 1914},
		{ID: 34, Name: "Penicillin discovered", Year: 1928},
		{ID: 35, Name: "World War II ends", Year: 1945},
		{ID: 36, Name: "Structure of DNA published", Year: 1953},
		{ID: 37, Name: "First human in space", Year: 1961},
		{ID: 38, Name: "Apollo 11 Moon landing", Year: 1969},
		{ID: 39, Name: "Fall of the Berlin Wall", Year: 1989},
		{ID: 40, Name: "World Wide Web made public", Year: 1991},
	}

	full := Deck{
		ID:          "history",
		Name:        "World History",
		Description: "From the pyramids to the web",
		Difficulty:  "hard",
		Cards:       events,
	}
	ancient := full.FilterYears(-3000, 500)
	ancient.ID, ancient.Name = "ancient", "Ancient World"
	ancient.Description, ancient.Difficulty = "Everything before the year 500", "medium"
	modern := full.FilterYears(1500, 2100)
	modern.ID, modern.Name = "modern", "Modern Era"
	modern.Description, modern.Difficulty = "1500 to the present", "easy"

	return &Catalogue{
		Decks: map[string]Deck{
			full.ID:    full,
			ancient.ID: ancient,
			modern.ID:  modern,
		},
		DefaultID: full.ID,
	}
}
