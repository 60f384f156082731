package service

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	custodyBalanceGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "escrow_custody_balance",
		Help: "Escrow token balance held in custody, in base units.",
	})
	depositedTotalGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "escrow_deposited_total",
		Help: "Sum of the amounts of deposited payments, in base units.",
	})
	custodyDivergedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "escrow_custody_diverged",
		Help: "1 when the custody balance differs from the deposited total.",
	})
)

// StartCustodyAuditRoutine compares custody with the deposited total every
// interval and warns while they differ. It never changes the ledger.
func (svc *EscrowService) StartCustodyAuditRoutine(ctx context.Context, interval time.Duration) error {
	svc.Logger.Infof("Starting custody audit routine every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := svc.AuditCustody(ctx); err != nil {
			svc.Logger.Errorf("Custody audit failed: %v", err)
			sentry.CaptureException(err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// AuditCustody builds a custody report, exports it as metrics and logs a
// warning when custody and the deposited total diverge.
func (svc *EscrowService) AuditCustody(ctx context.Context) (*CustodyReport, error) {
	report, err := svc.CustodyReport(ctx)
	if err != nil {
		return nil, err
	}
	custodyBalanceGauge.Set(float64(report.CustodyBalance))
	depositedTotalGauge.Set(float64(report.DepositedTotal))
	if report.Diverged {
		custodyDivergedGauge.Set(1)
		svc.Logger.Warnf("Custody balance %d diverges from deposited total %d", report.CustodyBalance, report.DepositedTotal)
		sentry.CaptureMessage("escrow custody balance diverges from deposited total")
	} else {
		custodyDivergedGauge.Set(0)
	}
	return report, nil
}
