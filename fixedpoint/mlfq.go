package fixedpoint

// LoadAvg computes the new system-wide load average given the previous
// value and the number of ready (including running, excluding idle) threads,
// per the once-a-second recompute in the MLFQ governor:
//
//	load_avg = (59/60) * load_avg + (1/60) * ready_count
func LoadAvg(prev Fixed, readyCount int) Fixed {
	fiftyNine := FromInt(59).Div(FromInt(60))
	oneSixtieth := FromInt(1).Div(FromInt(60))
	return fiftyNine.Mul(prev).Add(oneSixtieth.MulInt(readyCount))
}

// RecentCPU computes a thread's new recent_cpu given its previous value, the
// current load_avg, and its niceness:
//
//	recent_cpu = (2*load_avg)/(2*load_avg+1) * recent_cpu + nice
func RecentCPU(recentCPU, loadAvg Fixed, nice int) Fixed {
	twiceLoad := loadAvg.MulInt(2)
	coeff := twiceLoad.Div(twiceLoad.AddInt(1))
	return coeff.Mul(recentCPU).AddInt(nice)
}

// Priority computes a thread's MLFQ priority from recent_cpu and niceness,
// clamped to [priMin, priMax]:
//
//	priority = PRI_MAX - recent_cpu/4 - nice*2
func Priority(recentCPU Fixed, nice, priMin, priMax int) int {
	p := priMax - recentCPU.DivInt(4).Int() - nice*2
	if p < priMin {
		return priMin
	}
	if p > priMax {
		return priMax
	}
	return p
}
