package workout

// Progress returns completed/total clamped to [0, 1], with 0/0 defined as 0.
func Progress(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 1
	}
	return float64(completed) / float64(total)
}
