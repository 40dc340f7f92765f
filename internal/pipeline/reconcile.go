package pipeline

import (
	"github.com/raine/stock-metadata/internal/media"
	"github.com/rs/zerolog/log"
)

// reconcileStrategies are tried in order. Each pass runs over every job that
// is still unmatched before the next strategy is attempted.
var reconcileStrategies = []struct {
	name  string
	match func(job Job, r Result) bool
}{
	{"filename", func(job Job, r Result) bool {
		return r.Filename != "" && r.Filename == job.File.Name
	}},
	{"index", func(job Job, r Result) bool {
		return r.Index == job.Index
	}},
	{"stem", func(job Job, r Result) bool {
		return r.Filename != "" && media.Stem(r.Filename) == job.File.Stem()
	}},
}

// Reconcile assigns results to the jobs of a batch by filename, then index,
// then extensionless filename, then position. Jobs left without a result get
// a ReconciliationError. The returned slice is parallel to jobs and carries
// the job's identity fields.
func Reconcile(jobs []Job, results []Result) []Result {
	out := make([]Result, len(jobs))
	matched := make([]bool, len(jobs))
	used := make([]bool, len(results))

	assign := func(j, r int, strategy string) {
		res := results[r]
		res.Index = jobs[j].Index
		res.Filename = jobs[j].File.Name
		out[j] = res
		matched[j] = true
		used[r] = true
		if strategy != "filename" {
			log.Debug().Str("file", jobs[j].File.Name).Str("strategy", strategy).Msg("result reconciled")
		}
	}

	for _, strategy := range reconcileStrategies {
		for j, job := range jobs {
			if matched[j] {
				continue
			}
			for r, res := range results {
				if !used[r] && strategy.match(job, res) {
					assign(j, r, strategy.name)
					break
				}
			}
		}
	}

	for j := range jobs {
		if !matched[j] && j < len(results) && !used[j] {
			assign(j, j, "position")
		}
	}

	for j, job := range jobs {
		if !matched[j] {
			err := &ReconciliationError{File: job.File.Name, Index: job.Index}
			log.Error().Err(err).Msg("unmatched file in batch")
			out[j] = errorResult(job.Index, job.File, err)
		}
	}
	return out
}
