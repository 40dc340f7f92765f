package pipeline

import (
	"time"

	"github.com/raine/stock-metadata/internal/media"
)

const (
	mb = 1024 * 1024

	individualTotalBytes = 50 * mb
	individualFileCount  = 50

	defaultBatchSize = 10
	mediumBatchSize  = 8
	mediumTotalBytes = 10 * mb
	smallBatchSize   = 5
	largeTotalBytes  = 20 * mb

	largeFileBytes     = 2 * mb
	largeFileLimit     = 5
	largeFileBatchSize = 3

	fileDelayBase      = 1000 * time.Millisecond
	fileDelayStep      = 50 * time.Millisecond
	batchDelayBase     = 3000 * time.Millisecond
	batchDelayPerBatch = 1000 * time.Millisecond
)

// Plan is the batching decision for a run. Batches hold input indexes in
// input order.
type Plan struct {
	// Individual is set when files are processed strictly one at a time.
	Individual bool
	BatchSize  int
	Batches    [][]int
}

// PlanBatches decides how files are grouped. More than 50 files or more than
// 50MB in total are processed individually. Otherwise batches hold 10 files,
// 8 above 10MB total, 5 above 20MB total, and at most 3 when more than five
// files exceed 2MB each.
func PlanBatches(files []media.SourceFile) Plan {
	var total int64
	large := 0
	for _, f := range files {
		total += f.Size()
		if f.Size() > largeFileBytes {
			large++
		}
	}

	plan := Plan{BatchSize: batchSize(total, large)}
	if total > individualTotalBytes || len(files) > individualFileCount {
		plan.Individual = true
		plan.BatchSize = 1
	}

	for start := 0; start < len(files); start += plan.BatchSize {
		end := min(start+plan.BatchSize, len(files))
		batch := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, i)
		}
		plan.Batches = append(plan.Batches, batch)
	}
	return plan
}

func batchSize(totalBytes int64, largeFiles int) int {
	size := defaultBatchSize
	switch {
	case totalBytes > largeTotalBytes:
		size = smallBatchSize
	case totalBytes > mediumTotalBytes:
		size = mediumBatchSize
	}
	if largeFiles > largeFileLimit {
		size = min(size, largeFileBatchSize)
	}
	return size
}

// FileDelay is the pause before the next file once processed files are done.
func FileDelay(processed int) time.Duration {
	return fileDelayBase + time.Duration(processed)*fileDelayStep
}

// BatchDelay is the pause before the batch with the given index.
func BatchDelay(batchIndex int) time.Duration {
	return batchDelayBase + time.Duration(batchIndex)*batchDelayPerBatch
}
