package extract

import (
	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/text"
)

var supportTerms = []string{
	"support", "supports", "supported", "agree", "agrees", "favour", "favor",
	"in favour", "welcome", "welcomes", "approve", "approves", "endorse", "endorses",
	"commend", "applaud", "benefit", "benefits", "beneficial", "good", "great",
	"necessary", "essential", "protects", "protect", "improve", "improves",
	"fair", "long overdue", "progressive", "helpful",
}

var opposeTerms = []string{
	"oppose", "opposes", "opposed", "against", "reject", "rejects", "disagree",
	"harm", "harms", "harmful", "hurt", "hurts", "unfair", "unjust",
	"unconstitutional", "burden", "burdensome", "violates", "undermines",
	"threatens", "punitive", "scrap", "withdraw", "bad", "dangerous",
	"unemployment", "job losses", "poverty", "inflation", "costly", "exploit",
	"exploitative", "corruption", "oppressive",
}

var negations = []string{"not", "dont", "never", "no", "cannot", "wont", "doesnt"}

type lexTerm struct {
	position model.Position
}

type lexPattern struct {
	term    int
	negated bool
}

// positionLexicon counts support and oppose terms per sentence with one
// Aho-Corasick pass. A negated term ("do not support") counts for the
// opposite side.
type positionLexicon struct {
	matcher  *ahocorasick.Matcher
	terms    []lexTerm
	patterns []lexPattern
}

func newPositionLexicon() *positionLexicon {
	lex := &positionLexicon{}
	var dict []string

	add := func(words []string, pos model.Position) {
		for _, w := range words {
			term := len(lex.terms)
			lex.terms = append(lex.terms, lexTerm{position: pos})

			dict = append(dict, text.Padded(w))
			lex.patterns = append(lex.patterns, lexPattern{term: term})
			for _, neg := range negations {
				dict = append(dict, text.Padded(neg+" "+w))
				lex.patterns = append(lex.patterns, lexPattern{term: term, negated: true})
			}
		}
	}
	add(supportTerms, model.PositionSupport)
	add(opposeTerms, model.PositionOppose)

	lex.matcher = ahocorasick.NewStringMatcher(dict)
	return lex
}

// counts returns the number of distinct support and oppose terms in a
// sentence
func (l *positionLexicon) counts(sentence string) (support, oppose int) {
	plain := make([]bool, len(l.terms))
	negated := make([]bool, len(l.terms))
	for _, hit := range l.matcher.Match([]byte(text.Padded(sentence))) {
		p := l.patterns[hit]
		if p.negated {
			negated[p.term] = true
		} else {
			plain[p.term] = true
		}
	}

	for i, term := range l.terms {
		if !plain[i] && !negated[i] {
			continue
		}
		pos := term.position
		if negated[i] {
			pos = opposite(pos)
		}
		if pos == model.PositionSupport {
			support++
		} else {
			oppose++
		}
	}
	return support, oppose
}

// sentencePosition is the side with more terms, neutral on a tie
func (l *positionLexicon) sentencePosition(sentence string) model.Position {
	support, oppose := l.counts(sentence)
	switch {
	case support > oppose:
		return model.PositionSupport
	case oppose > support:
		return model.PositionOppose
	default:
		return model.PositionNeutral
	}
}

// majorityPosition is the majority vote of the non-neutral positions. Ties
// and an empty vote resolve to neutral.
func majorityPosition(positions []model.Position) model.Position {
	var support, oppose int
	for _, p := range positions {
		switch p {
		case model.PositionSupport:
			support++
		case model.PositionOppose:
			oppose++
		}
	}
	switch {
	case support > oppose:
		return model.PositionSupport
	case oppose > support:
		return model.PositionOppose
	default:
		return model.PositionNeutral
	}
}

func opposite(p model.Position) model.Position {
	if p == model.PositionSupport {
		return model.PositionOppose
	}
	return model.PositionSupport
}
