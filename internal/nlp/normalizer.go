package nlp

import "strings"

// Normalizer collapses an inflected place-name phrase to one canonical label.
// Place names show up in whatever grammatical case the sentence demands;
// normalizing to the lemma form makes "Оболоні" and "Оболонь" the same key.
type Normalizer struct {
	lemmas Lemmatizer
}

func NewNormalizer(lemmas Lemmatizer) *Normalizer {
	return &Normalizer{lemmas: lemmas}
}

// Normalize lemmatizes each whitespace-separated token, keeping unknown
// tokens verbatim, and rejoins with single spaces. Applying it twice gives
// the same result as applying it once: a lemma re-lemmatizes to itself.
func (n *Normalizer) Normalize(phrase string) string {
	tokens := strings.Fields(phrase)
	for i, tok := range tokens {
		if lemma, ok := n.lemmas.Lemma(tok); ok {
			tokens[i] = lemma
		}
	}
	return strings.Join(tokens, " ")
}
