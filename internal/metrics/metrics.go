// Package metrics holds the prometheus instruments of the sync daemon. The
// registry is an explicit value handed to the jobs and the status surface,
// never package-level state, so the sync logic stays testable without a
// metrics backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var schedulerStates = []string{"STANDBY", "RUNNING", "DOWN", "UNKNOWN"}

// JobMetrics couples the duration histogram and error counter of one job.
type JobMetrics struct {
	Duration prometheus.Histogram
	Errors   prometheus.Counter
}

// Registry bundles every instrument the daemon exports.
type Registry struct {
	SchedulerStatus *prometheus.GaugeVec
	ActiveJobs      prometheus.Gauge
	TotalRanJobs    prometheus.Gauge
	NextFireTime    *prometheus.GaugeVec

	Courses             JobMetrics
	Students            JobMetrics
	Rooms               JobMetrics
	CleanAlerts         JobMetrics
	CoursesGroupsTiming prometheus.Summary
}

// SchedulerSource is the slice of the scheduler the gauges are refreshed
// from on each scrape.
type SchedulerSource interface {
	Status() string
	ActiveJobCount() int64
	TotalExecutedCount() int64
	TriggerNames() []string
	NextFireTime(triggerName string) (time.Time, bool)
}

// New builds the instrument set and registers it on reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		SchedulerStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_status",
			Help: "Status of the scheduler, 1 on the current state.",
		}, []string{"state"}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_active_jobs",
			Help: "Number of currently executing jobs.",
		}),
		TotalRanJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_ran_jobs",
			Help: "Number of job runs completed since start.",
		}),
		NextFireTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_next_fire_time",
			Help: "Unix milliseconds of the trigger's next fire.",
		}, []string{"trigger"}),
		Courses:     newJobMetrics("courses"),
		Students:    newJobMetrics("students"),
		Rooms:       newJobMetrics("rooms"),
		CleanAlerts: newJobMetrics("clean_course_alert"),
		CoursesGroupsTiming: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       "scheduler_courses_groups_duration",
			Help:       "Duration of one group cycle of the courses task.",
			MaxAge:     5 * time.Minute,
			AgeBuckets: 10,
		}),
	}

	reg.MustRegister(
		r.SchedulerStatus, r.ActiveJobs, r.TotalRanJobs, r.NextFireTime,
		r.Courses.Duration, r.Courses.Errors,
		r.Students.Duration, r.Students.Errors,
		r.Rooms.Duration, r.Rooms.Errors,
		r.CleanAlerts.Duration, r.CleanAlerts.Errors,
		r.CoursesGroupsTiming,
	)
	return r
}

func newJobMetrics(job string) JobMetrics {
	return JobMetrics{
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_" + job + "_duration",
			Help:    "Duration of the " + job + " task in seconds.",
			Buckets: prometheus.ExponentialBuckets(1.0, 1.5, 25),
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_" + job + "_errors",
			Help: "Total errors of the " + job + " task.",
		}),
	}
}

// RefreshScheduler updates the scheduler gauges from src. The status surface
// calls it before serving each scrape.
func (r *Registry) RefreshScheduler(src SchedulerSource) {
	current := src.Status()
	for _, state := range schedulerStates {
		v := 0.0
		if state == current {
			v = 1.0
		}
		r.SchedulerStatus.WithLabelValues(state).Set(v)
	}

	r.ActiveJobs.Set(float64(src.ActiveJobCount()))
	r.TotalRanJobs.Set(float64(src.TotalExecutedCount()))

	for _, name := range src.TriggerNames() {
		if next, ok := src.NextFireTime(name); ok {
			r.NextFireTime.WithLabelValues(name).Set(float64(next.UnixMilli()))
		}
	}
}

// ObserveDuration records elapsed seconds on h, mirroring a prometheus
// timer started at t.
func ObserveDuration(h prometheus.Observer, t time.Time) {
	h.Observe(time.Since(t).Seconds())
}
