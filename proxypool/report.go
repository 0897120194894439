package manager

import (
	"context"

	"github.com/robfig/cron/v3"

	"proxyharvester/internal/shared/logger"
)

// reportLoop 按 ReportSchedule 周期性输出流水线报告，直到 ctx 结束。
// 只读取状态，不做任何修改。
func (m *Manager) reportLoop(ctx context.Context) {
	c := cron.New()
	c.Schedule(m.schedule, cron.FuncJob(m.report))
	c.Start()

	<-ctx.Done()
	// 等待正在执行的报告结束
	<-c.Stop().Done()
}

func (m *Manager) report() {
	l := logger.WithComponent("ProxyPool/Reporter")
	st := m.Stats()
	l.Info().
		Str("epoch", st.EpochID).
		Int("source_queue", st.SourceQueue).
		Int("harvests_in_flight", st.HarvestsInFlight).
		Int("unchecked_queue", st.UncheckedQueue).
		Int("roster", st.Roster).
		Int("completed", st.Completed).
		Int("pending", st.Pending).
		Int("published", st.Published).
		Uint64("generation", st.Generation).
		Uint64("epochs_completed", st.EpochsCompleted).
		Uint64("total_harvested", st.TotalHarvested).
		Uint64("total_validated", st.TotalValidated).
		Uint64("total_good", st.TotalGood).
		Msg("Pipeline report.")
}
