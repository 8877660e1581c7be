// Package similarity builds a TF-IDF vector space over a batch of documents
// and compares texts by cosine similarity and keyword sets by Jaccard
// similarity.
package similarity

import (
	"errors"
	"math"
	"sort"

	"github.com/ppiankov/argintel/internal/text"
)

// ErrEmptyCorpus is returned when no document has indexable terms
var ErrEmptyCorpus = errors.New("corpus has no indexable terms")

// term is one weighted dimension of a sparse vector
type term struct {
	word   string
	weight float64
}

// vector is a sparse TF-IDF vector sorted by word
type vector struct {
	terms []term
	norm  float64
}

// Corpus is an immutable TF-IDF space built once per batch.
// It is safe for concurrent reads.
type Corpus struct {
	docCount int
	df       map[string]int
	vectors  []vector
}

// Match is a document index with its similarity to a query
type Match struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewCorpus builds the vocabulary and document vectors for docs.
// Building a new corpus is the only way to change the document set.
func NewCorpus(docs []string) (*Corpus, error) {
	c := &Corpus{
		docCount: len(docs),
		df:       make(map[string]int),
	}

	tokenized := make([][]string, len(docs))
	for i, doc := range docs {
		tokens := text.Tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				c.df[t]++
			}
		}
	}

	if len(c.df) == 0 {
		return nil, ErrEmptyCorpus
	}

	c.vectors = make([]vector, len(docs))
	for i, tokens := range tokenized {
		c.vectors[i] = c.vectorize(tokens)
	}

	return c, nil
}

// Len returns the number of documents
func (c *Corpus) Len() int {
	return c.docCount
}

// idf uses the smoothed form ln((1+N)/(1+df)) + 1, which stays positive for
// terms present in every document and for terms outside the vocabulary
func (c *Corpus) idf(word string) float64 {
	return math.Log(float64(1+c.docCount)/float64(1+c.df[word])) + 1
}

func (c *Corpus) vectorize(tokens []string) vector {
	if len(tokens) == 0 {
		return vector{}
	}

	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	v := vector{terms: make([]term, 0, len(counts))}
	total := float64(len(tokens))
	for word, n := range counts {
		v.terms = append(v.terms, term{word: word, weight: float64(n) / total * c.idf(word)})
	}
	sort.Slice(v.terms, func(i, j int) bool { return v.terms[i].word < v.terms[j].word })

	var sum float64
	for _, t := range v.terms {
		sum += t.weight * t.weight
	}
	v.norm = math.Sqrt(sum)
	return v
}

// cosine walks both sorted term lists in the same order, so the result is
// bit-identical for cosine(a, b) and cosine(b, a). Zero-norm vectors yield 0.
func cosine(a, b vector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}

	var dot float64
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		switch {
		case a.terms[i].word < b.terms[j].word:
			i++
		case a.terms[i].word > b.terms[j].word:
			j++
		default:
			dot += a.terms[i].weight * b.terms[j].weight
			i++
			j++
		}
	}

	return clamp01(dot / (a.norm * b.norm))
}

// Similarity returns the cosine similarity of two texts in this corpus' space
func (c *Corpus) Similarity(a, b string) float64 {
	return cosine(c.vectorize(text.Tokenize(a)), c.vectorize(text.Tokenize(b)))
}

// DocumentSimilarity returns the similarity of documents i and j
func (c *Corpus) DocumentSimilarity(i, j int) float64 {
	return cosine(c.vectors[i], c.vectors[j])
}

// SimilarityMatrix returns the symmetric n×n document similarity matrix.
// The diagonal is 1 for documents with indexable terms and 0 otherwise.
func (c *Corpus) SimilarityMatrix() [][]float64 {
	n := len(c.vectors)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if c.vectors[i].norm > 0 {
			m[i][i] = 1
		}
		for j := i + 1; j < n; j++ {
			s := cosine(c.vectors[i], c.vectors[j])
			m[i][j] = s
			m[j][i] = s
		}
	}
	return m
}

// MostSimilar returns up to k documents most similar to query, best first.
// Equal scores are ordered by document index. Documents with zero similarity
// are omitted.
func (c *Corpus) MostSimilar(query string, k int) []Match {
	if k <= 0 {
		return nil
	}
	q := c.vectorize(text.Tokenize(query))

	var matches []Match
	for i, v := range c.vectors {
		if s := cosine(q, v); s > 0 {
			matches = append(matches, Match{Index: i, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// TopTerms returns the k terms with the highest summed TF-IDF weight across
// the given documents. Ties are broken alphabetically.
func (c *Corpus) TopTerms(docs []int, k int) []string {
	if k <= 0 {
		return nil
	}
	weights := make(map[string]float64)
	for _, d := range docs {
		if d < 0 || d >= len(c.vectors) {
			continue
		}
		for _, t := range c.vectors[d].terms {
			weights[t.word] += t.weight
		}
	}

	words := make([]string, 0, len(weights))
	for w := range weights {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if weights[words[i]] != weights[words[j]] {
			return weights[words[i]] > weights[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > k {
		words = words[:k]
	}
	return words
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
