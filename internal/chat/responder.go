package chat

import (
	"strings"
	"unicode"
)

const defaultAnswer = "I can help you learn about Nobel Prize winners, categories (Physics, Chemistry, Medicine, Literature, Peace, Economics), and their achievements. What would you like to know?"

// rule matches when any phrase is a substring of the lowercased message
// or any word appears as a whole word
type rule struct {
	phrases []string
	words   []string
	answer  string
}

// Responder answers from a fixed keyword table when no assistant is reachable
type Responder struct {
	rules []rule
}

// NewResponder returns the built-in Nobel keyword responder
func NewResponder() *Responder {
	return &Responder{rules: []rule{
		{
			phrases: []string{"einstein"},
			answer:  "Albert Einstein won the Nobel Prize in Physics in 1921 for his explanation of the photoelectric effect, not for relativity theory.",
		},
		{
			phrases: []string{"curie"},
			words:   []string{"marie"},
			answer:  "Marie Curie was the first woman to win a Nobel Prize and the only person to win Nobel Prizes in two different sciences (Physics 1903, Chemistry 1911).",
		},
		{
			phrases: []string{"how many"},
			words:   []string{"total"},
			answer:  "Since 1901, over 965 Nobel Prizes have been awarded to individuals and organizations for outstanding achievements in Physics, Chemistry, Medicine, Literature, Peace, and Economics.",
		},
		{
			words:  []string{"categories", "category", "fields"},
			answer: "There are 6 Nobel Prize categories: Physics, Chemistry, Physiology or Medicine, Literature, Peace, and Economic Sciences.",
		},
		{
			phrases: []string{"physics"},
			answer:  "Nobel Prize in Physics recognizes discoveries in the field of physics. Famous winners include Einstein (1921) and Marie Curie (1903).",
		},
		{
			phrases: []string{"chemistry"},
			answer:  "Nobel Prize in Chemistry honors chemical discoveries. Marie Curie also won this in 1911, making her the first person to win Nobel Prizes in two different sciences.",
		},
		{
			phrases: []string{"medicine"},
			answer:  "Nobel Prize in Physiology or Medicine recognizes medical breakthroughs. Recent winners have contributed to cancer research, vaccines, and genetic discoveries.",
		},
		{
			phrases: []string{"literature"},
			answer:  "Nobel Prize in Literature celebrates outstanding literary work. Winners include authors like Ernest Hemingway, Gabriel García Márquez, and Toni Morrison.",
		},
		{
			phrases: []string{"peace"},
			answer:  "Nobel Peace Prize honors efforts toward peace. Notable winners include Martin Luther King Jr., Nelson Mandela, and Malala Yousafzai.",
		},
		{
			phrases: []string{"economics", "economic"},
			answer:  "Nobel Prize in Economic Sciences recognizes contributions to economics. It was first awarded in 1969.",
		},
		{
			words:  []string{"when", "start", "started"},
			answer: "The Nobel Prizes were first awarded in 1901, five years after Alfred Nobel's death. The Economics Prize was added later in 1969.",
		},
		{
			phrases: []string{"what is nobel", "nobel prize"},
			answer:  "The Nobel Prize is awarded annually to individuals who have made outstanding contributions in Physics, Chemistry, Medicine, Literature, Peace, and Economics.",
		},
		{
			words:  []string{"hello", "hi", "hey"},
			answer: "Hello! I'm your Nobel Prize assistant. Ask me about Nobel laureates and their achievements!",
		},
	}}
}

// Respond returns the first matching answer, or a general hint
func (r *Responder) Respond(message string) string {
	msg := strings.ToLower(message)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(msg, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	}) {
		words[w] = true
	}

	for _, rl := range r.rules {
		for _, p := range rl.phrases {
			if strings.Contains(msg, p) {
				return rl.answer
			}
		}
		for _, w := range rl.words {
			if words[w] {
				return rl.answer
			}
		}
	}
	return defaultAnswer
}
