package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// hostHook returns facts about the machine the run is on.
type hostHook struct {
	hooks.Base `yaml:",inline"`
}

func (h *hostHook) Execute(ctx context.Context, _ hooks.Runtime) (any, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cpu count: %w", err)
	}

	facts := tree.FromPairs(
		"hostname", info.Hostname,
		"os", info.OS,
		"platform", info.Platform,
		"platform_family", info.PlatformFamily,
		"platform_version", info.PlatformVersion,
		"kernel_version", info.KernelVersion,
		"arch", info.KernelArch,
		"cpus", cpus,
	)
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		facts.Set("memory_total", int(vm.Total))
	}
	return facts, nil
}
