package parser

import (
	"strings"
	"unicode"
)

// Span is a piece of the sentence assigned to one field, with the
// classifier's confidence in that assignment.
type Span struct {
	Text       string
	Confidence float64
}

// Amount is either an IngredientAmount or a CompositeAmount.
type Amount interface {
	isAmount()
}

// IngredientAmount is a single quantity and unit. Quantity holds a float64 for
// plain numbers and the source text for fractions and ranges.
type IngredientAmount struct {
	Quantity    any
	QuantityMax float64
	Unit        string
	Text        string
	Confidence  float64
	StartIndex  int
}

// CompositeAmount is an amount written in several parts, such as
// "1 cup plus 2 tablespoons" or "2 (1 pound) packages".
type CompositeAmount struct {
	Amounts    []IngredientAmount
	Text       string
	Confidence float64
}

func (IngredientAmount) isAmount() {}
func (CompositeAmount) isAmount()  {}

// ClassifiedIngredient is a sentence split into labelled spans.
type ClassifiedIngredient struct {
	Sentence    string
	Amounts     []Amount
	Name        *Span
	Size        *Span
	Preparation *Span
	Comment     *Span
}

// Classifier labels the parts of an ingredient sentence.
type Classifier interface {
	Classify(sentence string) ClassifiedIngredient
}

// Tagger is a rule and lexicon based Classifier.
type Tagger struct {
	vocab *Vocabulary
}

// NewTagger creates a Tagger. A nil vocabulary selects the built-in one.
func NewTagger(vocab *Vocabulary) *Tagger {
	if vocab == nil {
		vocab = NewVocabulary()
	}
	return &Tagger{vocab: vocab}
}

// Classify implements Classifier.
func (t *Tagger) Classify(sentence string) ClassifiedIngredient {
	out := ClassifiedIngredient{Sentence: sentence}

	s := reDigitHyphenWord.ReplaceAllString(normalizeText(sentence), "$1 $2")
	head, tail := splitClause(s)

	amounts, rest := t.scanAmounts(head)
	out.Amounts = amounts

	rest, extra, comments := t.extractParentheticals(rest)
	out.Amounts = append(out.Amounts, extra...)

	if h, c, ok := t.vocab.trailingComment(rest); ok {
		rest = h
		comments = append(comments, Span{Text: c, Confidence: confCommentKnown})
	}

	words := strings.Fields(rest)
	sizes, preps, words := t.leadingDescriptors(words)
	trailing, words := t.trailingPreparation(words)
	if trailing != nil {
		preps = append(preps, *trailing)
	}

	if name := strings.Trim(strings.Join(words, " "), " ,;:."); name != "" {
		out.Name = &Span{Text: name, Confidence: nameConfidence(strings.Fields(name))}
	}

	if tail != "" {
		if span, isPrep := t.classifyClause(tail); isPrep {
			preps = append(preps, span)
		} else {
			comments = append(comments, span)
		}
	}

	out.Size = joinSpans(sizes)
	out.Preparation = joinSpans(preps)
	out.Comment = joinSpans(comments)
	return out
}

// scanAmounts reads the amounts at the start of head and returns them with the
// unconsumed remainder.
func (t *Tagger) scanAmounts(head string) ([]Amount, string) {
	first, rest, ok := t.scanAmount(head, head, false)
	if !ok {
		return nil, head
	}

	// "2 (1 pound) packages" or "2 tablespoons (30 ml)"
	if strings.HasPrefix(rest, "(") {
		if inner, after, closed := cutParenthetical(rest); closed {
			if paren, ok := t.parseParenAmount(inner); ok {
				paren.StartIndex = len(head) - len(rest)
				if first.Unit == "" {
					if m, afterUnit, ok := t.vocab.matchUnit(after); ok {
						first.Unit = m.Canonical
						first.Confidence = mean([]float64{first.Confidence, m.Confidence})
						first.Text = strings.TrimSpace(first.Text + " " + strings.TrimSuffix(after, afterUnit))
						return []Amount{composite(first, paren)}, skipOf(afterUnit)
					}
				}
				return []Amount{first, paren}, skipOf(after)
			}
		}
	}

	// "1 cup plus 2 tablespoons" or "1 lb 2 oz"
	if first.Unit != "" {
		joined := rest
		if fields := strings.Fields(rest); len(fields) > 0 {
			switch strings.ToLower(fields[0]) {
			case "plus", "+", "and":
				joined = strings.Join(fields[1:], " ")
			}
		}
		if next, after, ok := t.scanAmount(head, joined, true); ok {
			return []Amount{composite(first, next)}, after
		}
	}

	return []Amount{first}, rest
}

// scanAmount reads one quantity with an optional unit from the start of s.
// When requireUnit is set the amount must carry both. head is used to compute
// the start offset.
func (t *Tagger) scanAmount(head, s string, requireUnit bool) (IngredientAmount, string, bool) {
	amount := IngredientAmount{StartIndex: len(head) - len(s)}
	var confs []float64

	q, rest, ok := scanQuantity(s)
	switch {
	case ok:
		switch q.Kind {
		case kindNumber:
			amount.Quantity = q.Value
			confs = append(confs, confNumber)
		case kindFraction:
			amount.Quantity = q.Text
			confs = append(confs, confFraction)
		default:
			amount.Quantity = q.Text
			confs = append(confs, confRange)
		}
		amount.QuantityMax = q.Max
	case isArticle(s, t.vocab):
		// "a pinch of salt"
		_, rest, _ = strings.Cut(s, " ")
		amount.Quantity = 1.0
		amount.QuantityMax = 1
		confs = append(confs, confArticle)
	default:
		// "pinch of salt": unit without a quantity
		if requireUnit {
			return IngredientAmount{}, s, false
		}
		m, after, ok := t.vocab.matchUnit(s)
		if !ok || !startsWithOf(after) {
			return IngredientAmount{}, s, false
		}
		amount.Quantity = ""
		amount.Unit = m.Canonical
		amount.Confidence = m.Confidence
		amount.Text = strings.TrimSpace(strings.TrimSuffix(s, after))
		return amount, skipOf(after), true
	}

	if m, after, ok := t.vocab.matchUnit(rest); ok {
		amount.Unit = m.Canonical
		confs = append(confs, m.Confidence)
		rest = after
	} else if requireUnit {
		return IngredientAmount{}, s, false
	}

	amount.Text = strings.TrimSpace(strings.TrimSuffix(s, rest))
	amount.Confidence = mean(confs)
	return amount, skipOf(rest), true
}

// parseParenAmount accepts the inside of a parenthetical that is nothing but
// an amount, such as "30 ml", "1 pound" or "about 2 cups".
func (t *Tagger) parseParenAmount(inner string) (IngredientAmount, bool) {
	s := strings.TrimSpace(inner)
	for _, prefix := range []string{"about ", "approximately ", "approx. ", "approx ", "roughly ", "~"} {
		if strings.HasPrefix(strings.ToLower(s), prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	if _, _, ok := scanQuantity(s); !ok {
		return IngredientAmount{}, false
	}
	amount, rest, ok := t.scanAmount(s, s, false)
	if !ok {
		return IngredientAmount{}, false
	}
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "", "each", "total":
		amount.Text = "(" + strings.TrimSpace(inner) + ")"
		return amount, true
	}
	return IngredientAmount{}, false
}

// extractParentheticals removes every parenthetical group from s. Groups that
// hold an amount become extra amounts; the rest become comments.
func (t *Tagger) extractParentheticals(s string) (string, []Amount, []Span) {
	var amounts []Amount
	var comments []Span
	var kept strings.Builder

	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			kept.WriteString(s)
			break
		}
		inner, after, closed := cutParenthetical(s[open:])
		if !closed {
			kept.WriteString(s)
			break
		}
		kept.WriteString(s[:open])
		kept.WriteByte(' ')
		if amount, ok := t.parseParenAmount(inner); ok {
			amounts = append(amounts, amount)
		} else if strings.TrimSpace(inner) != "" {
			comments = append(comments, Span{Text: "(" + strings.TrimSpace(inner) + ")", Confidence: confParenthetical})
		}
		s = after
	}

	return strings.Join(strings.Fields(kept.String()), " "), amounts, comments
}

// leadingDescriptors splits size and preparation words off the front of words.
// Adverbs and "and" are only taken when a preparation word follows.
func (t *Tagger) leadingDescriptors(words []string) (sizes []Span, preps []Span, rest []string) {
	var prepWords []string
	var prepConfs []float64

	i := 0
loop:
	for i < len(words) {
		w := words[i]
		switch {
		case t.vocab.isSize(w):
			sizes = append(sizes, Span{Text: strings.Trim(w, ","), Confidence: confSize})
		case t.vocab.isPreparation(w):
			prepWords = append(prepWords, strings.Trim(w, ","))
			prepConfs = append(prepConfs, confPreparation)
		case (t.vocab.isAdverb(w) || cleanWord(w) == "and") && t.preparationFollows(words[i+1:]):
			prepWords = append(prepWords, w)
			if t.vocab.isAdverb(w) {
				prepConfs = append(prepConfs, confAdverb)
			} else {
				prepConfs = append(prepConfs, confClauseWord)
			}
		default:
			break loop
		}
		i++
	}

	if len(prepWords) > 0 {
		preps = append(preps, Span{Text: strings.Join(prepWords, " "), Confidence: mean(prepConfs)})
	}
	return sizes, preps, words[i:]
}

// trailingPreparation splits preparation words ("onion chopped", "carrots
// peeled and diced") off the end of words, keeping at least one word for the
// name.
func (t *Tagger) trailingPreparation(words []string) (*Span, []string) {
	end := len(words)
	for i := len(words) - 1; i >= 1; i-- {
		w := words[i]
		switch {
		case t.vocab.isPreparation(w):
			end = i
			continue
		case t.vocab.isAdverb(w) && end == i+1:
			end = i
			continue
		case cleanWord(w) == "and" && end == i+1 && t.vocab.isPreparation(words[i-1]):
			continue
		}
		break
	}
	if end == len(words) {
		return nil, words
	}

	var confs []float64
	for _, w := range words[end:] {
		switch {
		case t.vocab.isPreparation(w):
			confs = append(confs, confPreparation)
		case t.vocab.isAdverb(w):
			confs = append(confs, confAdverb)
		default:
			confs = append(confs, confClauseWord)
		}
	}
	return &Span{Text: strings.Join(words[end:], " "), Confidence: mean(confs)}, words[:end]
}

func (t *Tagger) preparationFollows(words []string) bool {
	for _, w := range words {
		switch {
		case t.vocab.isPreparation(w):
			return true
		case t.vocab.isAdverb(w), cleanWord(w) == "and":
			continue
		default:
			return false
		}
	}
	return false
}

// classifyClause labels the text after the first comma. A clause that opens
// with a preparation word (or an adverb) is a preparation, anything else a
// comment.
func (t *Tagger) classifyClause(clause string) (Span, bool) {
	words := strings.Fields(clause)
	if _, c, ok := t.vocab.trailingComment(clause); ok && c == clause {
		return Span{Text: clause, Confidence: confCommentKnown}, false
	}

	isPrep := t.vocab.isPreparation(words[0]) || (t.vocab.isAdverb(words[0]) && t.preparationFollows(words[1:]))
	if !isPrep {
		return Span{Text: clause, Confidence: confComment}, false
	}

	confs := make([]float64, 0, len(words))
	for _, w := range words {
		switch {
		case t.vocab.isPreparation(w):
			confs = append(confs, confPreparation)
		case t.vocab.isAdverb(w):
			confs = append(confs, confAdverb)
		default:
			confs = append(confs, confClauseWord)
		}
	}
	return Span{Text: clause, Confidence: mean(confs)}, true
}

func composite(amounts ...IngredientAmount) CompositeAmount {
	c := CompositeAmount{Amounts: amounts}
	texts := make([]string, 0, len(amounts))
	confs := make([]float64, 0, len(amounts))
	for _, a := range amounts {
		texts = append(texts, a.Text)
		confs = append(confs, a.Confidence)
	}
	c.Text = strings.Join(texts, " ")
	c.Confidence = mean(confs)
	return c
}

func nameConfidence(words []string) float64 {
	confs := make([]float64, 0, len(words))
	for _, w := range words {
		if isWord(w) {
			confs = append(confs, confNameWord)
		} else {
			confs = append(confs, confNameOther)
		}
	}
	return mean(confs)
}

func joinSpans(spans []Span) *Span {
	if len(spans) == 0 {
		return nil
	}
	texts := make([]string, 0, len(spans))
	confs := make([]float64, 0, len(spans))
	for _, s := range spans {
		texts = append(texts, s.Text)
		confs = append(confs, s.Confidence)
	}
	return &Span{Text: strings.Join(texts, ", "), Confidence: mean(confs)}
}

// splitClause splits s at its first comma outside parentheses.
func splitClause(s string) (head, tail string) {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				return strings.TrimSpace(s[:i]), strings.Trim(s[i+1:], " ,")
			}
		}
	}
	return strings.TrimSpace(s), ""
}

// cutParenthetical expects s to start with '(' and returns the text inside the
// matching ')' and the text after it.
func cutParenthetical(s string) (inner, after string, ok bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], strings.TrimSpace(s[i+1:]), true
			}
		}
	}
	return "", s, false
}

func isArticle(s string, vocab *Vocabulary) bool {
	first, rest, ok := strings.Cut(s, " ")
	if !ok {
		return false
	}
	switch strings.ToLower(first) {
	case "a", "an", "one":
		_, _, isUnit := vocab.matchUnit(rest)
		return isUnit
	}
	return false
}

func startsWithOf(s string) bool {
	return strings.EqualFold(s, "of") || strings.HasPrefix(strings.ToLower(s), "of ")
}

func skipOf(s string) string {
	if startsWithOf(s) {
		return strings.TrimSpace(s[2:])
	}
	return s
}

// isWord reports whether w consists of letters, hyphens and apostrophes.
func isWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return w != ""
}
