package oracle

import (
	"context"
	"sync"

	"github.com/dvloznov/finance-vault/internal/domain"
	"github.com/dvloznov/finance-vault/internal/logger"
	"github.com/dvloznov/finance-vault/internal/reader"
)

// ChunkResult is the extraction outcome for one chunk. Exactly one of
// Candidates or Err is meaningful; Dropped counts records filtered during
// validation either way.
type ChunkResult struct {
	Chunk      int
	Candidates []domain.Candidate
	Dropped    int
	Err        error
}

// Adapter drives extraction across the chunks of one file. Oracle calls are
// the dominant latency source, so independent chunks run concurrently up to
// Workers; results are reassembled in chunk order because identifier
// derivation downstream depends on position in the file.
type Adapter struct {
	Oracle Oracle

	// Workers bounds concurrent oracle calls. Zero or negative means 1.
	Workers int
}

// ExtractAll runs extraction over every chunk and returns per-chunk results
// ordered by chunk index. A chunk whose output fails validation gets one
// retry with a stricter reformulated instruction; after that its candidates
// are dropped and the failure is recorded in the result, never silently
// discarded.
func (a *Adapter) ExtractAll(ctx context.Context, chunks []reader.Chunk, hints Hints) []ChunkResult {
	results := make([]ChunkResult, len(chunks))
	workers := a.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		go func(c reader.Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[c.Index] = a.extractChunk(ctx, c, hints)
		}(chunk)
	}
	wg.Wait()
	return results
}

func (a *Adapter) extractChunk(ctx context.Context, chunk reader.Chunk, hints Hints) ChunkResult {
	log := logger.FromContext(ctx)

	result := a.tryChunk(ctx, chunk, extractionPrompt(chunk.Text, hints))
	if result.Err == nil {
		return result
	}
	if ctx.Err() != nil {
		return result
	}

	log.Warn().Int("chunk", chunk.Index).Err(result.Err).Msg("extraction failed, retrying with strict prompt")

	retry := a.tryChunk(ctx, chunk, strictRetryPrompt(chunk.Text, hints))
	if retry.Err != nil {
		log.Error().Int("chunk", chunk.Index).Err(retry.Err).Msg("chunk dropped after retry")
	}
	return retry
}

func (a *Adapter) tryChunk(ctx context.Context, chunk reader.Chunk, prompt string) ChunkResult {
	raw, err := a.Oracle.Complete(ctx, prompt)
	if err != nil {
		return ChunkResult{Chunk: chunk.Index, Err: &ParseError{Chunk: chunk.Index, Reason: err.Error()}}
	}
	candidates, dropped, err := parseCandidates(raw, chunk.Index)
	return ChunkResult{Chunk: chunk.Index, Candidates: candidates, Dropped: dropped, Err: err}
}

// IdentifyInstrument classifies the statement's payment instrument from the
// document's leading text. Identification is best-effort: any failure maps
// to Unknown.
func (a *Adapter) IdentifyInstrument(ctx context.Context, headText string) domain.PaymentMethod {
	raw, err := a.Oracle.Complete(ctx, instrumentPrompt(headText))
	if err != nil {
		return domain.PaymentUnknown
	}
	return domain.ParsePaymentMethod(trimQuotes(raw))
}

func trimQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\'' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
