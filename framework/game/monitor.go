package game

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/discovery"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
)

// Monitor 负载监控器
// 定期采集桌数/玩家数/CPU/内存，折算成负载分上报给 etcd
type Monitor struct {
	tableManager   *TableManager
	registry       *discovery.Registry
	updateInterval time.Duration
	stopCh         chan struct{}
}

func NewMonitor(tableManager *TableManager, registry *discovery.Registry, updateInterval time.Duration) *Monitor {
	return &Monitor{
		tableManager:   tableManager,
		registry:       registry,
		updateInterval: updateInterval,
		stopCh:         make(chan struct{}),
	}
}

func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	m.reportLoad()
	for {
		select {
		case <-ctx.Done():
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-m.stopCh:
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-ticker.C:
			m.reportLoad()
		}
	}
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) reportLoad() {
	loadInfo := m.collectLoadInfo()
	load := loadInfo.CalculateLoad()

	if err := m.registry.UpdateLoad(load); err != nil {
		log.Error("Monitor 上报负载信息失败: %v", err)
		return
	}
	log.Debug("Monitor 上报负载: Load=%.2f, Tables=%d, Players=%d, CPU=%.2f%%, Mem=%.2f%%",
		load, loadInfo.TableCount, loadInfo.PlayerCount, loadInfo.CPUUsage, loadInfo.MemUsage)
}

func (m *Monitor) collectLoadInfo() *LoadInfo {
	tableCount, playerCount := m.tableManager.GetStats()
	return &LoadInfo{
		TableCount:  tableCount,
		PlayerCount: playerCount,
		CPUUsage:    m.getCPUUsage(),
		MemUsage:    m.getMemoryUsage(),
	}
}

func (m *Monitor) getCPUUsage() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		log.Warn("Monitor 采集 CPU 失败: %v", err)
		return 0.0
	}
	return percents[0]
}

func (m *Monitor) getMemoryUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("Monitor 采集内存失败: %v", err)
		return 0.0
	}
	return vm.UsedPercent
}
