package research

import (
	"strings"
	"sync"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

// Record accumulates everything one fact-check has learned. A single Record
// is shared by pointer across the whole research tree; it only ever grows.
type Record struct {
	mu sync.Mutex

	rootQuery string
	queries   []string
	documents []model.Document
	urls      map[string]int
	learnings []model.Learning
	completed []string
}

// NewRecord starts an empty record for root
func NewRecord(root string) *Record {
	return &Record{rootQuery: root, urls: make(map[string]int)}
}

// RootQuery returns the claim text the research started from
func (r *Record) RootQuery() string {
	return r.rootQuery
}

// AddQueries appends issued search queries
func (r *Record) AddQueries(queries ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, queries...)
}

// AddDocument accepts doc unless its URL is already present. The check and
// the insert happen under one lock.
func (r *Record) AddDocument(doc model.Document) bool {
	key := urlKey(doc.URL)
	if key == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.urls[key]; ok {
		return false
	}
	r.urls[key] = len(r.documents)
	r.documents = append(r.documents, doc)
	return true
}

// HasURL reports whether a document with this URL was accepted
func (r *Record) HasURL(rawURL string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.urls[urlKey(rawURL)]
	return ok
}

// Document returns the accepted document for rawURL
func (r *Record) Document(rawURL string) (model.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.urls[urlKey(rawURL)]
	if !ok {
		return model.Document{}, false
	}
	return r.documents[idx], true
}

// AcceptedURLs returns a snapshot of accepted URLs in acceptance order
func (r *Record) AcceptedURLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.documents))
	for i, d := range r.documents {
		out[i] = d.URL
	}
	return out
}

// AddLearning appends a learning
func (r *Record) AddLearning(l model.Learning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.learnings = append(r.learnings, l)
}

// CompleteQuery marks a query as researched; repeats are ignored
func (r *Record) CompleteQuery(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.completed {
		if q == query {
			return
		}
	}
	r.completed = append(r.completed, query)
}

// Documents returns a snapshot of accepted documents
func (r *Record) Documents() []model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Document(nil), r.documents...)
}

// Learnings returns a snapshot of learnings
func (r *Record) Learnings() []model.Learning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Learning(nil), r.learnings...)
}

// Queries returns a snapshot of issued queries
func (r *Record) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// Completed returns a snapshot of completed queries
func (r *Record) Completed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.completed...)
}

func urlKey(rawURL string) string {
	return strings.TrimSpace(rawURL)
}
