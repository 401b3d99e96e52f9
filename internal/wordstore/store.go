// Package wordstore is the similarity oracle behind the medium
// reconstruction tier: a SQLite lexicon of common English words, optionally
// indexed with vector embeddings so candidates can be ranked against the
// clue text gathered during a level.
//
// The sqlite-vec extension is used for KNN search when the binary is built
// with the sqlite_vec tag; otherwise ranking falls back to a linear cosine
// scan over stored embeddings.
package wordstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"merlinsolver/internal/embedding"
	"merlinsolver/internal/letters"
)

//go:embed words.txt
var lexicon string

// suggestLimit caps how many candidates Suggest returns, best first.
const suggestLimit = 25

// indexBatch is how many words are embedded per engine call while indexing.
const indexBatch = 32

// Store is a SQLite-backed word lexicon with optional vector ranking.
type Store struct {
	db        *sql.DB
	engine    embedding.Engine // nil disables vector ranking
	log       *zap.Logger
	vectorExt bool
}

// Open opens (or creates) the lexicon database at path and loads the bundled
// word list. engine may be nil; then Suggest ranks by letter match only.
func Open(path string, engine embedding.Engine, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Debug("failed to set journal_mode=WAL", zap.Error(err))
	}

	s := &Store{db: db, engine: engine, log: log}
	s.vectorExt = s.detectVecExtension()
	if s.vectorExt {
		log.Info("sqlite-vec extension detected, KNN search enabled")
	} else {
		log.Debug("sqlite-vec extension not available, using linear cosine scan")
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.loadLexicon(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS words (
			word   TEXT PRIMARY KEY,
			length INTEGER NOT NULL,
			rank   INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_words_length ON words(length);
		CREATE TABLE IF NOT EXISTS vectors (
			word      TEXT PRIMARY KEY,
			embedding BLOB NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("failed to migrate lexicon schema: %w", err)
	}
	return nil
}

// detectVecExtension probes for vec0 virtual table support.
func (s *Store) detectVecExtension() bool {
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE temp.vec_probe USING vec0(embedding FLOAT[4])"); err != nil {
		return false
	}
	_, _ = s.db.Exec("DROP TABLE temp.vec_probe")
	return true
}

// loadLexicon inserts the bundled word list. Line order is frequency order;
// the line number becomes the word's rank.
func (s *Store) loadLexicon() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin lexicon load: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO words (word, length, rank) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare lexicon insert: %w", err)
	}
	defer stmt.Close()

	rank := 0
	for _, line := range strings.Split(lexicon, "\n") {
		word := strings.ToLower(strings.TrimSpace(line))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		rank++
		if _, err := stmt.Exec(word, len(word), rank); err != nil {
			return fmt.Errorf("failed to insert lexicon word %q: %w", word, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lexicon load: %w", err)
	}
	s.log.Debug("lexicon loaded", zap.Int("words", rank))
	return nil
}

// =============================================================================
// INDEXING
// =============================================================================

// Index embeds every lexicon word that has no stored vector yet. It is a
// no-op without an engine. Intended to run once at session start for the
// medium/high tiers.
func (s *Store) Index(ctx context.Context) error {
	if s.engine == nil {
		return nil
	}
	if hc, ok := s.engine.(embedding.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding engine unavailable: %w", err)
		}
	}

	rows, err := s.db.Query(`
		SELECT w.word FROM words w
		LEFT JOIN vectors v ON v.word = w.word
		WHERE v.word IS NULL ORDER BY w.rank`)
	if err != nil {
		return fmt.Errorf("failed to list unindexed words: %w", err)
	}
	var todo []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan word: %w", err)
		}
		todo = append(todo, w)
	}
	rows.Close()
	if len(todo) == 0 {
		return nil
	}

	s.log.Info("indexing lexicon embeddings",
		zap.Int("words", len(todo)), zap.String("engine", s.engine.Name()))

	if s.vectorExt {
		// vec0 needs the dimensionality up front, so the virtual table is
		// created lazily here rather than in migrate.
		if _, err := s.db.Exec(fmt.Sprintf(
			"CREATE VIRTUAL TABLE IF NOT EXISTS word_vec USING vec0(word TEXT, embedding FLOAT[%d])",
			s.engine.Dimensions())); err != nil {
			return fmt.Errorf("failed to create vec0 table: %w", err)
		}
	}

	for start := 0; start < len(todo); start += indexBatch {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+indexBatch, len(todo))
		batch := todo[start:end]
		vecs, err := s.engine.EmbedBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to embed lexicon batch: %w", err)
		}
		for i, word := range batch {
			blob := serializeVector(vecs[i])
			if _, err := s.db.Exec(
				"INSERT OR REPLACE INTO vectors (word, embedding) VALUES (?, ?)",
				word, blob,
			); err != nil {
				return fmt.Errorf("failed to store vector for %q: %w", word, err)
			}
			if s.vectorExt {
				if _, err := s.db.Exec(
					"INSERT OR REPLACE INTO word_vec (word, embedding) VALUES (?, ?)",
					word, blob,
				); err != nil {
					return fmt.Errorf("failed to store vec0 row for %q: %w", word, err)
				}
			}
		}
	}
	return nil
}

// =============================================================================
// SUGGESTION
// =============================================================================

// Suggest returns candidate words for the pattern, best first. Primary order
// is fixed-letter agreement; when clue text and an engine are available,
// embedding similarity breaks ties; frequency rank breaks the rest.
func (s *Store) Suggest(ctx context.Context, p letters.Pattern, clueText string) ([]string, error) {
	if p.Length == 0 {
		return nil, fmt.Errorf("pattern has no length")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT word, rank FROM words WHERE length = ? ORDER BY rank", p.Length)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	type cand struct {
		word  string
		rank  int
		score int
		sim   float64
	}
	var cands []cand
	for rows.Next() {
		var c cand
		if err := rows.Scan(&c.word, &c.rank); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.score = p.MatchScore(c.word)
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}
	if len(cands) == 0 {
		return nil, nil
	}

	if clueText != "" && s.engine != nil {
		sims, err := s.similarityTo(ctx, clueText)
		if err != nil {
			// Ranking refinement only; letter agreement still orders results.
			s.log.Warn("clue similarity ranking unavailable", zap.Error(err))
		} else {
			for i := range cands {
				cands[i].sim = sims[cands[i].word]
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if cands[i].sim != cands[j].sim {
			return cands[i].sim > cands[j].sim
		}
		return cands[i].rank < cands[j].rank
	})

	n := min(suggestLimit, len(cands))
	out := make([]string, 0, n)
	for _, c := range cands[:n] {
		out = append(out, c.word)
	}
	return out, nil
}

// similarityTo embeds the clue text and returns cosine similarity per
// indexed word.
func (s *Store) similarityTo(ctx context.Context, clueText string) (map[string]float64, error) {
	query, err := s.engine.Embed(ctx, clueText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed clue text: %w", err)
	}

	if s.vectorExt {
		return s.knnSimilarity(ctx, query)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT word, embedding FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	defer rows.Close()

	sims := make(map[string]float64)
	for rows.Next() {
		var word string
		var blob []byte
		if err := rows.Scan(&word, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan vector: %w", err)
		}
		vec := deserializeVector(blob)
		if len(vec) != len(query) {
			continue
		}
		sim, err := embedding.CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		sims[word] = sim
	}
	return sims, rows.Err()
}

// knnSimilarity ranks indexed words against the query vector with a vec0
// KNN scan. Distances are cosine-ish; convert to a similarity so callers
// sort the same way as the linear path.
func (s *Store) knnSimilarity(ctx context.Context, query []float32) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT word, distance FROM word_vec
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance`, serializeVector(query), suggestLimit*4)
	if err != nil {
		return nil, fmt.Errorf("vec0 knn query failed: %w", err)
	}
	defer rows.Close()

	sims := make(map[string]float64)
	for rows.Next() {
		var word string
		var distance float64
		if err := rows.Scan(&word, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan knn row: %w", err)
		}
		sims[word] = 1 - distance
	}
	return sims, rows.Err()
}

// =============================================================================
// VECTOR SERIALIZATION
// =============================================================================

// serializeVector encodes a vector as little-endian float32, the same blob
// layout sqlite-vec uses.
func serializeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeVector(blob []byte) []float32 {
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}
