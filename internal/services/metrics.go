package services

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes used as the "outcome" label.
const (
	outcomeOK           = "ok"
	outcomeInvalid      = "invalid"
	outcomeUploadFailed = "upload_failed"
	outcomeUnavailable  = "unavailable"
)

var (
	// vaultSubmissions counts Submit calls by outcome.
	vaultSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_submissions_total",
			Help: "Total number of message submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// vaultAttachmentBytes records the size of accepted attachments.
	vaultAttachmentBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "vault_attachment_bytes",
			Help: "Size of stored message attachments in bytes.",
			Buckets: []float64{
				10 << 10, 100 << 10, 500 << 10, // 10..500KiB
				1 << 20, 2 << 20, 5 << 20, 10 << 20, // 1..10MiB
			},
		},
	)
)

func init() {
	prometheus.MustRegister(vaultSubmissions, vaultAttachmentBytes)
}
