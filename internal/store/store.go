// Package store implements Piccolo's content-addressed bytecode cache
// (SPEC_FULL.md §3/§10): a compiled Chunk is kept behind a key derived
// from the hash of its source text, so a CLI invocation that recompiles
// identical source can load the Chunk back instead of re-running the
// Scanner/Parser/Emitter. Two backends share the same Store interface,
// grounded on the teacher's (estevaofon-noxy) sqlite native functions
// in internal/vm/vm.go and its DynamoDB plugin in
// cmd/noxy-plugin-dynamodb/main.go — both adapted here into direct
// library calls instead of the teacher's native-function/RPC-plugin
// indirection, since Piccolo has no plugin system.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"

	"github.com/cheezgi/piccolo/internal/chunk"
)

// Record is one cache entry: the compiled Chunk plus enough metadata to
// audit where it came from.
type Record struct {
	Key       string
	RunID     uuid.UUID
	Source    string
	Chunk     []byte // gob-encoded chunk.Chunk
	CreatedAt string // strftime-formatted
}

// Store persists and retrieves compiled chunks by content key.
type Store interface {
	// Get returns the cached chunk for key, or ok=false on a miss.
	Get(ctx context.Context, key string) (*chunk.Chunk, bool, error)
	// Put stores c under key, stamping a fresh run id and timestamp.
	Put(ctx context.Context, key string, source string, c *chunk.Chunk) error
	Close() error
}

// Key derives a cache key from source text: the hex SHA-256 digest,
// so identical source always round-trips to the same entry regardless
// of file name or invocation.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func encodeChunk(c *chunk.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("store: encode chunk: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeChunk(data []byte) (*chunk.Chunk, error) {
	var c chunk.Chunk
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("store: decode chunk: %w", err)
	}
	return &c, nil
}

func newRecord(key, source string, data []byte) Record {
	return Record{
		Key:       key,
		RunID:     uuid.New(),
		Source:    source,
		Chunk:     data,
		CreatedAt: strftime.Format("%Y-%m-%d %H:%M:%S", time.Now()),
	}
}
