package nlp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lemmatizer resolves one token to its nominative-singular dictionary form.
// The boolean is false when the token is not in the dictionary.
type Lemmatizer interface {
	Lemma(token string) (string, bool)
}

// DictLemmatizer looks tokens up in a form-to-lemma table. Lookups are
// case-insensitive and the lemma is re-capitalized to match the input token,
// so proper names keep their leading capital and lemmatization stays
// idempotent.
type DictLemmatizer struct {
	forms map[string]string
}

// NewDictLemmatizer loads a tab-separated "form<TAB>lemma" dictionary file.
// Blank lines and lines starting with # are skipped.
func NewDictLemmatizer(path string) (*DictLemmatizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening morph dictionary: %w", err)
	}
	defer f.Close()

	d, err := ReadDict(f)
	if err != nil {
		return nil, fmt.Errorf("error reading morph dictionary %s: %w", path, err)
	}
	return d, nil
}

// ReadDict parses dictionary entries from r.
func ReadDict(r io.Reader) (*DictLemmatizer, error) {
	forms := make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		form, lemma, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: expected form<TAB>lemma", lineNo)
		}
		forms[strings.ToLower(strings.TrimSpace(form))] = strings.ToLower(strings.TrimSpace(lemma))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &DictLemmatizer{forms: forms}, nil
}

func (d *DictLemmatizer) Lemma(token string) (string, bool) {
	lemma, ok := d.forms[strings.ToLower(token)]
	if !ok {
		return "", false
	}
	return matchCase(token, lemma), true
}

// matchCase re-applies the source token's leading capitalization to the lemma.
func matchCase(source, lemma string) string {
	first, _ := utf8.DecodeRuneInString(source)
	if !unicode.IsUpper(first) {
		return lemma
	}

	r, size := utf8.DecodeRuneInString(lemma)
	if r == utf8.RuneError {
		return lemma
	}
	return string(unicode.ToUpper(r)) + lemma[size:]
}
