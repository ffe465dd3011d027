package scan

import (
	"context"
	"errors"
	"io"

	"winnow/pkg/logflags"
	"winnow/pkg/match"
	"winnow/pkg/proc"
)

// scanPass sweeps every window of the given regions through the matcher
// and pushes the survivors. The candidate list is appended to, never
// reset here.
func scanPass(ctx context.Context, prov windowProvider, regions []proc.Region, m *match.Matcher, list *match.List, log logflags.Logger) error {
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return err
		}

		prov.SetRegion(r)
		windows := 0
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			addr, window, err := prov.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			windows++

			v, flags := match.Observe(window)
			if !m.MatchScan(v, flags, len(window)) {
				continue
			}
			list.Push(match.Entry{Addr: addr, Val: v, Flags: flags})
		}

		log.Debugf("region %d: %d windows, %d candidates so far", r.ID, windows, list.Size())
	}

	log.Infof("scan %s: %d candidates", m.Op, list.Size())
	return nil
}
