package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camlock_uploads_total",
			Help: "Constant uploads covering the watched register window",
		},
	)

	candidatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camlock_candidates_total",
			Help: "Uploads that passed view-projection scoring",
		},
	)

	rejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camlock_rejected_total",
			Help: "Uploads rejected by view-projection scoring",
		},
	)

	framesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camlock_frames_total",
			Help: "Frame boundaries processed",
		},
	)

	cameraCommitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camlock_camera_commits_total",
			Help: "View/projection transform pairs committed to the sink",
		},
	)

	worldTransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlock_world_transforms_total",
			Help: "World transforms committed to the sink",
		},
		[]string{"kind"}, // kind: full, identity
	)

	lockStateGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camlock_locked",
			Help: "1 once the camera source is locked, 0 while scanning",
		},
	)

	lockFrameGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camlock_lock_frame",
			Help: "Frame index at which the camera source locked, -1 while scanning",
		},
	)
)

func init() {
	lockFrameGauge.Set(-1)
}
