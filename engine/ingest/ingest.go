// Package ingest provides the ingestion pipeline that processes captures and
// imported conversations through validation, chunking, tagging, embedding,
// and vector storage.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/jarvis-ai/jarvis/engine/chunk"
	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/embed"
	"github.com/jarvis-ai/jarvis/engine/tag"
	"github.com/jarvis-ai/jarvis/engine/vector"
	"github.com/jarvis-ai/jarvis/pkg/fn"
)

const (
	// CaptureSubject is the NATS subject for OCR'd screen captures.
	CaptureSubject = "jarvis.ingest.capture"
	// ConversationSubject is the NATS subject for imported conversations.
	ConversationSubject = "jarvis.ingest.conversation"
	// DLQSubject is the dead letter queue subject for failed messages.
	DLQSubject = "jarvis.ingest.dlq"
	// MaxRetries before sending to DLQ.
	MaxRetries = 3
)

// Deps holds the external dependencies for the ingestion pipeline.
type Deps struct {
	Embedder     *embed.Service
	Store        *vector.Store
	DeduplicateF func(ctx context.Context, itemID string) (bool, error) // true if already ingested
	Logger       *slog.Logger
}

// --- Pipeline stages ---

// Validate rejects items with no text body.
var Validate fn.Stage[Item, Item] = func(_ context.Context, it Item) fn.Result[Item] {
	if strings.TrimSpace(it.Text) == "" {
		return fn.Errf[Item]("ingest: empty text for item %s", it.ID)
	}
	if it.Collection == "" {
		return fn.Errf[Item]("ingest: missing collection for item %s", it.ID)
	}
	return fn.Ok(it)
}

// Chunk splits an item's text into domain.Chunks at paragraph/sentence
// boundaries.
var Chunk fn.Stage[Item, []domain.Chunk] = func(_ context.Context, it Item) fn.Result[[]domain.Chunk] {
	chunks := chunk.Split(it.ConversationID, it.Source, it.Title, it.Text, it.ConversationDate, chunk.DefaultMinChars, chunk.DefaultMaxChars)
	if len(chunks) == 0 {
		return fn.Errf[[]domain.Chunk]("ingest: no chunks produced for item %s", it.ID)
	}
	return fn.Ok(chunks)
}

// taggedChunks pairs a chunk with the item it came from, needed downstream
// for the capture ID and collection that don't live on domain.Chunk.
type taggedChunks struct {
	item   Item
	chunks []domain.Chunk
}

// withItem threads the originating Item alongside its chunks so the embed
// and store stages can recover the capture ID and target collection.
func withItem(it Item) fn.Stage[[]domain.Chunk, taggedChunks] {
	return func(_ context.Context, chunks []domain.Chunk) fn.Result[taggedChunks] {
		return fn.Ok(taggedChunks{item: it, chunks: chunks})
	}
}

// NewEmbedAndTag embeds every chunk and attaches deterministic NLP tags,
// producing vector points ready for storage.
func NewEmbedAndTag(svc *embed.Service) fn.Stage[taggedChunks, []domain.VectorPoint] {
	return func(ctx context.Context, tc taggedChunks) fn.Result[[]domain.VectorPoint] {
		texts := make([]string, len(tc.chunks))
		for i, c := range tc.chunks {
			texts[i] = c.ChunkText
		}
		embeddings, err := svc.EmbedBatch(ctx, texts)
		if err != nil {
			return fn.Err[[]domain.VectorPoint](fmt.Errorf("ingest: embed batch: %w", err))
		}

		now := time.Now().UTC()
		points := make([]domain.VectorPoint, len(tc.chunks))
		for i, c := range tc.chunks {
			points[i] = domain.VectorPoint{
				ID:               pointID(tc.item, c.ChunkIndex),
				Embedding:        embeddings[i],
				ConversationID:   c.ConversationID,
				CaptureID:        tc.item.CaptureID,
				Source:           c.Source,
				Title:            c.Title,
				ChunkText:        domain.TruncateForPayload(c.ChunkText),
				ChunkIndex:       c.ChunkIndex,
				TotalChunks:      c.TotalChunks,
				ConversationDate: c.ConversationDate,
				ChunkTags:        tag.Extract(c.ChunkText),
				Timestamp:        now,
			}
		}
		return fn.Ok(points)
	}
}

// pointID derives a deterministic point ID so re-ingesting the same item is
// idempotent rather than producing duplicate vectors.
func pointID(it Item, chunkIndex int) string {
	key := it.ID
	if key == "" {
		key = it.ConversationID + ":" + it.CaptureID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s-%d", key, chunkIndex))).String()
}

// NewStore upserts embedded points into their target collection.
func NewStore(store *vector.Store, collection string) fn.Stage[[]domain.VectorPoint, string] {
	return func(ctx context.Context, points []domain.VectorPoint) fn.Result[string] {
		records := make([]vector.Record, len(points))
		for i, p := range points {
			if err := domain.ValidateVectorPoint(p); err != nil {
				return fn.Err[string](fmt.Errorf("ingest: %w", err))
			}
			records[i] = vector.Record{
				ID:           p.ID,
				Dense:        p.Embedding.Dense,
				SparseIdx:    p.Embedding.SparseIdx,
				SparseValues: p.Embedding.SparseValues,
				Payload:      toPayload(p),
			}
		}
		if err := store.Upsert(ctx, collection, records); err != nil {
			return fn.Err[string](fmt.Errorf("ingest: vector upsert: %w", err))
		}
		if len(points) == 0 {
			return fn.Ok("")
		}
		return fn.Ok(points[0].ConversationID)
	}
}

// toPayload flattens a VectorPoint into the flat string map the vector store
// persists alongside each point.
func toPayload(p domain.VectorPoint) map[string]string {
	payload := map[string]string{
		"source":       p.Source,
		"title":        p.Title,
		"chunk_text":   p.ChunkText,
		"chunk_index":  strconv.Itoa(p.ChunkIndex),
		"total_chunks": strconv.Itoa(p.TotalChunks),
		"timestamp":    p.Timestamp.Format(time.RFC3339),
		"sentiment":    string(p.Sentiment),
	}
	if p.ConversationID != "" {
		payload["conversation_id"] = p.ConversationID
	}
	if p.CaptureID != "" {
		payload["capture_id"] = p.CaptureID
	}
	if p.ConversationDate != nil {
		payload["conversation_date"] = p.ConversationDate.Format(time.RFC3339)
	}
	if len(p.People) > 0 {
		payload["people"] = strings.Join(p.People, ",")
	}
	if len(p.Projects) > 0 {
		payload["projects"] = strings.Join(p.Projects, ",")
	}
	if len(p.Topics) > 0 {
		payload["topics"] = strings.Join(p.Topics, ",")
	}
	if len(p.ActionItems) > 0 {
		payload["action_items"] = strings.Join(p.ActionItems, domain.PayloadActionItemSeparator)
	}
	return payload
}

// LoggedTap returns a stage that logs entry/exit with duration.
func LoggedTap[T any](name string, log *slog.Logger) fn.Stage[T, T] {
	return func(_ context.Context, t T) fn.Result[T] {
		start := time.Now()
		log.Info("stage.enter", "stage", name)
		defer log.Info("stage.exit", "stage", name, "duration", time.Since(start))
		return fn.Ok(t)
	}
}

// NewPipeline constructs the full ingestion pipeline: validate, chunk, embed
// and tag, then store, with logging taps between stages.
func NewPipeline(deps Deps, collection string) fn.Stage[Item, string] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(ctx context.Context, it Item) fn.Result[string] {
		validated := fn.Then(LoggedTap[Item]("validate", log), Validate)
		tagged := fn.Then(validated, fn.Then(LoggedTap[Item]("chunk", log), fn.Then(Chunk, withItem(it))))
		embedded := fn.Then(tagged, fn.Then(LoggedTap[taggedChunks]("embed", log), NewEmbedAndTag(deps.Embedder)))
		stored := fn.Then(embedded, fn.Then(LoggedTap[[]domain.VectorPoint]("store", log), NewStore(deps.Store, collection)))
		return stored(ctx, it)
	}
}

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Item    Item   `json:"item"`
	Error   string `json:"error"`
	Retries int    `json:"retries"`
}

// StartConsumer starts a NATS consumer on subject that runs items through
// the ingestion pipeline for collection, with retry and DLQ support.
func StartConsumer(nc *nats.Conn, deps Deps, subject, collection string) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps, collection)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var it Item
		if err := json.Unmarshal(msg.Data, &it); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}
		it.Collection = collection

		ctx := context.Background()

		if deps.DeduplicateF != nil {
			exists, err := deps.DeduplicateF(ctx, it.ID)
			if err != nil {
				log.Warn("ingest: dedup check failed", "error", err)
			} else if exists {
				log.Info("ingest: skipping duplicate", "item_id", it.ID)
				if msg.Reply != "" {
					_ = msg.Ack()
				}
				return
			}
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		result := pipeline(ctx, it)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			retries++
			log.Error("ingest: pipeline failed", "error", pipeErr, "item_id", it.ID, "retry", retries)

			if retries >= MaxRetries {
				dlq := dlqMessage{Item: it, Error: pipeErr.Error(), Retries: retries}
				data, _ := json.Marshal(dlq)
				if err := nc.Publish(DLQSubject, data); err != nil {
					log.Error("ingest: DLQ publish failed", "error", err)
				}
			} else {
				retryMsg := nats.NewMsg(subject)
				retryMsg.Data = msg.Data
				retryMsg.Header = nats.Header{}
				retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
				if err := nc.PublishMsg(retryMsg); err != nil {
					log.Error("ingest: retry publish failed", "error", err)
				}
			}
		} else {
			docID, _ := result.Unwrap()
			log.Info("ingest: success", "conversation_id", docID, "item_id", it.ID)
		}

		if msg.Reply != "" {
			_ = msg.Ack()
		}
	})
}
