package messages

import "github.com/miguelbaldi/kafka-browser/internal/domain"

// WindowRequest is the input of one offset-window computation.
type WindowRequest struct {
	// Partitions are the current broker watermarks.
	Partitions []domain.Partition
	Mode       domain.FetchMode
	// MaxMessages caps the per-partition window for Newest/Oldest; ignored
	// otherwise. Zero or negative means no cap.
	MaxMessages int64
	// Prior switches to incremental mode when non-empty: each partition
	// resumes from its previously recorded high watermark.
	Prior []domain.Partition
}

// ComputeWindow turns current watermarks, a fetch mode and optionally the
// previously recorded partition ranges into the effective [low, high) window
// per partition plus the total message count. The input slices are never
// mutated; a fresh partition list is built on every call.
//
// Partitions with unknown watermarks keep their sentinels and contribute
// zero to the total; the populate and live-read paths skip them.
func ComputeWindow(request WindowRequest) ([]domain.Partition, int64) {
	if len(request.Prior) > 0 {
		return incrementalWindow(request.Partitions, request.Prior)
	}
	return freshWindow(request.Partitions, request.Mode, request.MaxMessages)
}

// incrementalWindow resumes each partition from the high bound recorded by
// the previous cache run. Partitions never seen before start at their low
// watermark. Running this twice with unchanged watermarks yields a zero
// total: each new low equals the current high.
func incrementalWindow(current, prior []domain.Partition) ([]domain.Partition, int64) {
	priorByID := make(map[int32]domain.Partition, len(prior))
	for _, p := range prior {
		priorByID[p.ID] = p
	}

	var total int64
	result := make([]domain.Partition, 0, len(current))
	for _, p := range current {
		if !p.Known() {
			result = append(result, p)
			continue
		}

		low := p.OffsetLow
		if recorded, ok := priorByID[p.ID]; ok && recorded.OffsetHigh > low {
			low = recorded.OffsetHigh
		}
		if low > p.OffsetHigh {
			// The topic shrank under us (recreated or truncated);
			// nothing new to fetch for this partition.
			low = p.OffsetHigh
		}

		window := domain.Partition{ID: p.ID, OffsetLow: low, OffsetHigh: p.OffsetHigh}
		total += window.Count()
		result = append(result, window)
	}
	return result, total
}

// freshWindow applies the fetch mode against the raw watermarks. Newest
// takes the most recent max messages per partition, Oldest the earliest;
// both fall back to the full watermark range when the cap is unset or the
// clamped window would invert. FromTimestamp windows arrive with their low
// bound already resolved by the broker timestamp lookup, so it behaves like
// All here.
func freshWindow(current []domain.Partition, mode domain.FetchMode, maxMessages int64) ([]domain.Partition, int64) {
	var total int64
	result := make([]domain.Partition, 0, len(current))
	for _, p := range current {
		if !p.Known() {
			result = append(result, p)
			continue
		}

		low, high := p.OffsetLow, p.OffsetHigh
		switch mode {
		case domain.FetchModeNewest:
			if newLow := high - maxMessages; maxMessages > 0 && newLow >= low {
				low = newLow
			}
		case domain.FetchModeOldest:
			if newHigh := low + maxMessages; maxMessages > 0 && newHigh <= high {
				high = newHigh
			}
		case domain.FetchModeAll, domain.FetchModeFromTimestamp:
			// Full window.
		}

		window := domain.Partition{ID: p.ID, OffsetLow: low, OffsetHigh: high}
		total += window.Count()
		result = append(result, window)
	}
	return result, total
}
