package domain

// Lesson: платное занятие с ценой, местом проведения и количеством свободных мест.
type Lesson struct {
	ID          string  `json:"id"`
	Subject     string  `json:"subject"`
	Price       float64 `json:"price"`
	Location    string  `json:"location"`
	Spaces      int     `json:"spaces"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// LessonPatch описывает частичное обновление урока.
// nil-поле означает "не менять"; идентификатор обновить нельзя.
type LessonPatch struct {
	Subject     *string  `json:"subject,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Spaces      *int     `json:"spaces,omitempty"`
	Description *string  `json:"description,omitempty"`
	Image       *string  `json:"image,omitempty"`
}

// IsEmpty сообщает, что патч не содержит ни одного изменения.
func (p LessonPatch) IsEmpty() bool {
	return p.Subject == nil &&
		p.Price == nil &&
		p.Location == nil &&
		p.Spaces == nil &&
		p.Description == nil &&
		p.Image == nil
}

// Apply применяет непустые поля патча к копии урока.
func (p LessonPatch) Apply(l Lesson) Lesson {
	if p.Subject != nil {
		l.Subject = *p.Subject
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.Spaces != nil {
		l.Spaces = *p.Spaces
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Image != nil {
		l.Image = *p.Image
	}
	return l
}
