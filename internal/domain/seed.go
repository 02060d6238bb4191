package domain

// SampleLessons возвращает стартовый набор уроков без идентификаторов;
// id проставляет хранилище при посеве.
func SampleLessons() []Lesson {
	return []Lesson{
		{
			Subject:     "Cooking Class",
			Price:       50,
			Location:    "London",
			Spaces:      5,
			Description: "Learn to cook delicious meals from scratch with a professional chef.",
			Image:       "images/cooking.png",
		},
		{
			Subject:     "Debate Competition",
			Price:       40,
			Location:    "Manchester",
			Spaces:      5,
			Description: "Sharpen your public speaking and argumentation skills in friendly debates.",
			Image:       "images/debate.png",
		},
	}
}
