package serviceImp

import (
	"math"
	"sort"
	"strings"

	"soilscan/entities"
	"soilscan/pkg/kb/embedder"
	"soilscan/pkg/kb/repository"
)

type KBSvc struct {
	r   repository.KBRepository
	emb *embedder.Client // nil when no embedding endpoint is configured
}

func New(r repository.KBRepository, e *embedder.Client) *KBSvc { return &KBSvc{r: r, emb: e} }

// splitChunks breaks article text on blank lines, merging paragraphs until a
// chunk reaches maxRunes.
func splitChunks(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = 1000
	}
	paras := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n\n")
	var out []string
	var cur strings.Builder
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(p) > maxRunes {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func (s *KBSvc) UpsertDocument(title, tags, text, sourceURL string) (*entities.KBDocument, int, error) {
	d := &entities.KBDocument{Title: title, Tags: tags, SourceURL: sourceURL}
	if err := s.r.CreateDoc(d); err != nil {
		return nil, 0, err
	}

	chs := splitChunks(text, 1000)
	if len(chs) == 0 {
		return d, 0, nil
	}

	var embs [][]float32
	if s.emb != nil {
		// degrade gracefully: chunks without embeddings still match by keyword
		embs, _ = s.emb.Embed(chs)
	}

	rows := make([]entities.KBChunk, len(chs))
	for i := range chs {
		var eb []byte
		if i < len(embs) {
			eb = embedder.FloatsToBytes(embs[i])
		}
		rows[i] = entities.KBChunk{DocID: d.DocID, Ord: i, Text: chs[i], Embedding: eb}
	}
	if err := s.r.BulkInsertChunks(rows); err != nil {
		return nil, 0, err
	}
	return d, len(rows), nil
}

func (s *KBSvc) Search(query string, k int) ([]entities.KBChunk, error) {
	q := strings.TrimSpace(query)
	if q == "" || k <= 0 {
		return nil, nil
	}
	chunks, err := s.r.AllChunks()
	if err != nil || len(chunks) == 0 {
		return nil, err
	}

	var qvec []float32
	if s.emb != nil {
		if vecs, err := s.emb.Embed([]string{q}); err == nil && len(vecs) > 0 {
			qvec = vecs[0]
		}
	}

	type scored struct {
		ch entities.KBChunk
		sc float64
	}
	list := make([]scored, 0, len(chunks))
	for _, ch := range chunks {
		sc := 0.0
		if len(qvec) > 0 && len(ch.Embedding) > 0 {
			sc = cosine(qvec, embedder.BytesToFloats(ch.Embedding))
		} else {
			sc = keywordScore(q, ch.Text)
		}
		if sc > 0 {
			list = append(list, scored{ch, sc})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].sc > list[j].sc })

	if k > len(list) {
		k = len(list)
	}
	out := make([]entities.KBChunk, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, list[i].ch)
	}
	return out, nil
}

// keywordScore counts how many query terms appear in the chunk, weighted by
// occurrence count. Crude but good enough as the no-embedder fallback.
func keywordScore(query, text string) float64 {
	lt := strings.ToLower(text)
	score := 0.0
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len(term) < 3 {
			continue
		}
		if n := strings.Count(lt, term); n > 0 {
			score += 1 + math.Log(float64(n)+1)
		}
	}
	return score
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (s *KBSvc) DocsMeta(ids []uint) (map[uint]entities.KBDocument, error) { return s.r.DocsByIDs(ids) }

func (s *KBSvc) ListDocs() ([]entities.KBDocument, error) { return s.r.ListDocs() }
