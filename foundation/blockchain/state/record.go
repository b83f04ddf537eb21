package state

import (
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
)

// SubmitRecord accepts a record for inclusion in a future block. It returns
// the index of the block the record is expected to land in.
func (s *State) SubmitRecord(rec database.Record) (uint64, error) {
	s.mu.RLock()
	n, err := s.mempool.Add(rec, s.usedKeys)
	next := s.chain.Tip().Index + 1
	s.mu.RUnlock()

	if err != nil {
		return 0, err
	}

	s.evHandler("state: SubmitRecord: record[%s]: pending[%d]: blk[%d]", rec.ID(), n, next)
	s.metrics.SetMempoolSize(n)

	if s.autoMine && s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return next, nil
}
