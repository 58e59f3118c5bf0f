// Package jobs runs background work outside of HTTP request handling.
//
// TreeCheckProcessor re-derives the technique nested set from its parent
// links on an interval and reports (or rewrites) rows whose lft, rght,
// tree_id or level drifted:
//
//	job := jobs.NewTreeCheckProcessor(jobs.TreeCheckConfig{
//	    Checker:  techniqueService,
//	    Interval: time.Hour,
//	    Repair:   true,
//	})
//	job.Start()
//	defer job.Stop()
//
// Jobs log errors and keep running.
package jobs
