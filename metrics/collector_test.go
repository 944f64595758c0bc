package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("pass-001", 1)

	c.IncJobStarted()
	c.IncJobStarted()
	c.IncJobSucceeded()
	c.IncJobFailed()
	c.IncJobSkipped()
	c.IncSliceFetched()
	c.IncSliceFetched()
	c.IncSliceFetched()
	c.IncFetchFailure()
	c.IncAggregationFailure()
	c.IncValidationFailure()
	c.IncValidationFailure()
	c.IncPersistFailure()

	s := c.Snapshot()

	if s.JobsStarted != 2 {
		t.Errorf("JobsStarted = %d, want 2", s.JobsStarted)
	}
	if s.JobsSucceeded != 1 {
		t.Errorf("JobsSucceeded = %d, want 1", s.JobsSucceeded)
	}
	if s.JobsFailed != 1 {
		t.Errorf("JobsFailed = %d, want 1", s.JobsFailed)
	}
	if s.JobsSkipped != 1 {
		t.Errorf("JobsSkipped = %d, want 1", s.JobsSkipped)
	}
	if s.SlicesFetched != 3 {
		t.Errorf("SlicesFetched = %d, want 3", s.SlicesFetched)
	}
	if s.FetchFailures != 1 {
		t.Errorf("FetchFailures = %d, want 1", s.FetchFailures)
	}
	if s.AggregationFailures != 1 {
		t.Errorf("AggregationFailures = %d, want 1", s.AggregationFailures)
	}
	if s.ValidationFailures != 2 {
		t.Errorf("ValidationFailures = %d, want 2", s.ValidationFailures)
	}
	if s.PersistFailures != 1 {
		t.Errorf("PersistFailures = %d, want 1", s.PersistFailures)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("pass-42", 2)
	s := c.Snapshot()

	if s.PassID != "pass-42" {
		t.Errorf("PassID = %q, want %q", s.PassID, "pass-42")
	}
	if s.Attempt != 2 {
		t.Errorf("Attempt = %d, want 2", s.Attempt)
	}
}

func TestCollector_NilReceiverSafe(t *testing.T) {
	var c *Collector

	c.IncJobStarted()
	c.IncJobSucceeded()
	c.IncJobFailed()
	c.IncJobSkipped()
	c.IncSliceFetched()
	c.IncFetchFailure()
	c.IncAggregationFailure()
	c.IncValidationFailure()
	c.IncPersistFailure()

	s := c.Snapshot()
	if s.JobsStarted != 0 {
		t.Errorf("nil collector snapshot not zero: %+v", s)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("pass-001", 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncSliceFetched()
			c.IncJobStarted()
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.SlicesFetched != 50 || s.JobsStarted != 50 {
		t.Errorf("lost increments: fetched=%d started=%d", s.SlicesFetched, s.JobsStarted)
	}
}
