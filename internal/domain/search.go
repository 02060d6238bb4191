package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SearchQuery: разобранный поисковый запрос по урокам.
//
// Текст ищется как буквальная подстрока (без учёта регистра) в subject,
// description и location. Если текст является числом, дополнительно
// подходят уроки с price или spaces, равными этому числу.
type SearchQuery struct {
	Text    string
	Number  float64
	Numeric bool

	pattern *regexp.Regexp
}

// ParseSearchQuery разбирает сырую строку запроса.
// Пустая строка или строка из пробелов даёт пустой запрос (IsEmpty).
func ParseSearchQuery(raw string) SearchQuery {
	text := strings.TrimSpace(raw)
	if text == "" {
		return SearchQuery{}
	}

	// Невалидные байты UTF-8 заменяются на U+FFFD: и regexp, и оператор ~*
	// в PostgreSQL принимают только корректные строки.
	text = strings.ToValidUTF8(text, "\uFFFD")

	q := SearchQuery{Text: text}
	if pattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(text)); err == nil {
		q.pattern = pattern
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		q.Number = n
		q.Numeric = true
	}
	return q
}

// IsEmpty сообщает, что по запросу ничего искать не нужно.
func (q SearchQuery) IsEmpty() bool {
	return q.Text == ""
}

// Pattern возвращает регулярное выражение с экранированным текстом запроса
// без флага регистра; используется хранилищами с собственным case-insensitive оператором.
func (q SearchQuery) Pattern() string {
	return regexp.QuoteMeta(q.Text)
}

// Matches проверяет урок на соответствие запросу.
func (q SearchQuery) Matches(l Lesson) bool {
	if q.IsEmpty() {
		return false
	}
	if q.pattern != nil &&
		(q.pattern.MatchString(l.Subject) ||
			q.pattern.MatchString(l.Description) ||
			q.pattern.MatchString(l.Location)) {
		return true
	}
	if q.Numeric && (l.Price == q.Number || float64(l.Spaces) == q.Number) {
		return true
	}
	return false
}
