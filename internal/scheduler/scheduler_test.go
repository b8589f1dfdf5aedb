package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Run() error   { j.runs++; return j.err }
func (j *countingJob) Name() string { return "counting" }

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
}

func TestAddJobAcceptsEverySyntax(t *testing.T) {
	s := New(zerolog.Nop())

	assert.NoError(t, s.AddJob("@every 30s", &countingJob{}))
}

func TestRunNowExecutesImmediately(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	assert.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)
}

func TestRunNowPropagatesJobError(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("upstream down")}

	assert.ErrorContains(t, s.RunNow(job), "upstream down")
	assert.Equal(t, 1, job.runs)
}
