package room

// tick evicts expired history, drops idle rate windows and re-broadcasts
// the presence count when it drifted from the last one sent.
func (e *Engine) tick() {
	now := e.now()
	if ttl := e.cfg.HistoryTTL; ttl > 0 {
		if n := e.history.EvictBefore(now.Add(-ttl)); n > 0 {
			e.logger.Debug().Int("count", n).Msg("expired history evicted")
		}
	}
	if n := e.limiter.Prune(now); n > 0 {
		e.logger.Debug().Int("count", n).Msg("idle rate windows pruned")
	}
	if e.registry.CountActive() != e.lastCount {
		e.broadcastCount()
	}
}
