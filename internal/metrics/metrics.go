package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "superover"

// Recorder exposes the Prometheus collectors for match activity. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	matchesCreated   *prometheus.CounterVec
	matchesCompleted *prometheus.CounterVec
	balls            *prometheus.CounterVec
	runs             *prometheus.CounterVec
	submitErrors     *prometheus.CounterVec
	questionFetches  *prometheus.CounterVec
}

// New registers collectors on reg. Pass prometheus.DefaultRegisterer in
// production so promhttp.Handler serves them.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		matchesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Matches created, by bot difficulty.",
		}, []string{"difficulty"}),
		matchesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_completed_total",
			Help:      "Matches completed, by result from the human's point of view.",
		}, []string{"result"}),
		balls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balls_total",
			Help:      "Balls played, by side and outcome.",
		}, []string{"side", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs scored, by side.",
		}, []string{"side"}),
		submitErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submit_errors_total",
			Help:      "Rejected answer submissions, by error code.",
		}, []string{"code"}),
		questionFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_fetches_total",
			Help:      "Question over fetches, by source.",
		}, []string{"source"}),
	}

	if reg != nil {
		reg.MustRegister(
			r.matchesCreated,
			r.matchesCompleted,
			r.balls,
			r.runs,
			r.submitErrors,
			r.questionFetches,
		)
	}
	return r
}

// MatchCreated counts a new match.
func (r *Recorder) MatchCreated(difficulty string) {
	if r == nil {
		return
	}
	r.matchesCreated.WithLabelValues(difficulty).Inc()
}

// MatchCompleted counts a finished match. result is win, loss, or tie.
func (r *Recorder) MatchCompleted(result string) {
	if r == nil {
		return
	}
	r.matchesCompleted.WithLabelValues(result).Inc()
}

// Ball counts one delivery for side ("human" or "bot").
func (r *Recorder) Ball(side string, runs int, wicket bool) {
	if r == nil {
		return
	}
	outcome := "runs"
	if wicket {
		outcome = "wicket"
	}
	r.balls.WithLabelValues(side, outcome).Inc()
	r.runs.WithLabelValues(side).Add(float64(runs))
}

// SubmitRejected counts an answer rejected with code.
func (r *Recorder) SubmitRejected(code string) {
	if r == nil {
		return
	}
	r.submitErrors.WithLabelValues(code).Inc()
}

// QuestionsFetched counts a question over served from source.
func (r *Recorder) QuestionsFetched(source string) {
	if r == nil {
		return
	}
	r.questionFetches.WithLabelValues(source).Inc()
}
